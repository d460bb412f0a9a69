package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	fserrors "finsage/internal/errors"
	"finsage/internal/session"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Run an interactive advisory session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

func runChat(ctx context.Context) error {
	if !isTTY() {
		color.NoColor = true
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	ctrl := rt.controller

	fmt.Println(bold("finsage") + gray(" - your financial advisory session"))
	fmt.Println(gray("Type /help for commands, or just talk to your advisor."))
	printAdvisors(rt)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		printPrompt(ctrl.State().AdvisorID)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if strings.HasPrefix(line, "/") {
			runCommand(ctx, rt, line)
			continue
		}

		if n, err := strconv.Atoi(line); err == nil {
			selectOption(ctx, rt, n-1)
			continue
		}
		sendChat(ctx, rt, line)
	}
	return scanner.Err()
}

func printPrompt(advisorID string) {
	if advisorID == "" {
		fmt.Print(cyan("finsage> "))
		return
	}
	fmt.Print(cyan(advisorID + "> "))
}

func runCommand(ctx context.Context, rt *runtime, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(gray("  /advisors          list advisor personas"))
		fmt.Println(gray("  /select <id>       start a session with an advisor"))
		fmt.Println(gray("  /retry             retry the last failed question fetch"))
		fmt.Println(gray("  /report            show or build the final plan"))
		fmt.Println(gray("  /progress          show session progress"))
		fmt.Println(gray("  /profile           show the stored profile"))
		fmt.Println(gray("  /restart           abandon the current session"))
		fmt.Println(gray("  /quit              exit"))
	case "/advisors":
		printAdvisors(rt)
	case "/select":
		if len(fields) < 2 {
			fmt.Println(red("usage: /select <advisor-id or goal>"))
			return
		}
		target := fields[1]
		if persona, ok := rt.catalog.ForGoal(target); ok {
			target = persona.ID
		}
		if err := rt.controller.SelectAdvisor(ctx, target); err != nil {
			printError(err)
			return
		}
		printQuestion(rt)
	case "/retry":
		if err := rt.controller.RetryFetch(ctx); err != nil {
			printError(err)
			return
		}
		printQuestion(rt)
	case "/report":
		report := rt.controller.RequestReport(ctx)
		if report.Fallback {
			fmt.Println(yellow("The advisory service is unreachable; this is general guidance."))
		}
		fmt.Println(bold(report.Summary))
		for i, step := range report.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	case "/progress":
		snap := rt.controller.State()
		fmt.Printf("%s %d%%\n", gray("progress:"), snap.Progress)
	case "/profile":
		snap := rt.controller.State()
		p := snap.Profile
		fmt.Printf("%s goal=%s savings=%.0f income=%.0f completed=%d\n",
			gray("profile:"), p.Goal, p.CurrentSavings, p.MonthlyIncome, p.CompletedGoals)
		if len(p.Achievements) > 0 {
			fmt.Printf("%s %s\n", gray("achievements:"), strings.Join(p.Achievements, ", "))
		}
	case "/restart":
		rt.controller.Restart()
		fmt.Println(gray("session cleared"))
	default:
		fmt.Println(red("unknown command, try /help"))
	}
}

func printAdvisors(rt *runtime) {
	fmt.Println(bold("Advisors:"))
	for _, a := range rt.catalog.List() {
		fmt.Printf("  %s %s %s\n", green(a.ID), bold(a.Name), gray(a.Description))
	}
}

func printQuestion(rt *runtime) {
	snap := rt.controller.State()
	if snap.Terminal {
		fmt.Println(green("All questions answered."))
		if snap.Report != nil {
			fmt.Println(bold(snap.Report.Summary))
			for i, step := range snap.Report.Steps {
				fmt.Printf("  %d. %s\n", i+1, step)
			}
		}
		return
	}
	if snap.Question == "" {
		return
	}
	fmt.Println(bold(snap.Question))
	for i, opt := range snap.Options {
		fmt.Printf("  %s %s\n", cyan(strconv.Itoa(i+1)+")"), opt.Text)
	}
	fmt.Println(gray("answer with the option number"))
}

func selectOption(ctx context.Context, rt *runtime, index int) {
	if err := rt.controller.SelectOption(ctx, index); err != nil {
		printError(err)
		return
	}
	printAchievements(rt)
	printQuestion(rt)
}

func sendChat(ctx context.Context, rt *runtime, text string) {
	result, err := rt.controller.SendMessage(ctx, text)
	if err != nil {
		if fserrors.IsDiscarded(err) {
			return
		}
		printError(err)
		return
	}
	printMessage(result.Message)
	if result.StartDecisionTree {
		printQuestion(rt)
	}
}

func printMessage(msg session.Message) {
	if msg.Fallback {
		fmt.Println(yellow(msg.Content))
		return
	}
	fmt.Println(msg.Content)
	if msg.Sentiment != "" {
		fmt.Println(gray(fmt.Sprintf("sentiment: %s (%.2f)", msg.Sentiment, msg.Confidence)))
	}
}

func printAchievements(rt *runtime) {
	for _, note := range rt.controller.PendingAchievements() {
		fmt.Println(green("achievement unlocked: " + note.Title))
		rt.controller.DismissAchievement(note.ID)
	}
}

func printError(err error) {
	switch {
	case fserrors.IsState(err):
		// Invalid transitions are silent no-ops in the terminal too.
	case fserrors.IsRetryable(err):
		fmt.Println(red(err.Error()) + gray(" (use /retry)"))
	default:
		fmt.Println(red(err.Error()))
	}
}
