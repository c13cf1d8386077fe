// Command gdbt reconciles Grafana dashboards and folders against a
// declarative set of YAML stencils, grounded on the original's cli.py
// click command group.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/argannor/gdbt/internal/app"
	"github.com/argannor/gdbt/internal/log"
	"github.com/argannor/gdbt/internal/plan"
	"github.com/argannor/gdbt/internal/resource"
)

var version = "dev"

func main() {
	cli := kingpin.New("gdbt", "Declarative Grafana dashboard reconciliation")
	scope := cli.Flag("scope", "Configuration/stencil scope directory").Short('s').Default(".").String()
	update := cli.Flag("update", "Force re-evaluation, bypassing the evaluation cache").Short('u').Bool()
	autoApprove := cli.Flag("auto-approve", "Skip the confirmation prompt").Short('y').Bool()
	debug := cli.Flag("debug", "Enable debug logging").Bool()

	versionCmd := cli.Command("version", "Print the gdbt version")
	validateCmd := cli.Command("validate", "Validate stencils and configuration without touching Grafana")
	planCmd := cli.Command("plan", "Show the changes an apply would make")
	applyCmd := cli.Command("apply", "Reconcile Grafana with the desired stencils")
	destroyCmd := cli.Command("destroy", "Remove every resource gdbt manages")

	command := kingpin.MustParse(cli.Parse(os.Args[1:]))
	logger := log.New(*debug)
	ctx := context.Background()

	var err error
	switch command {
	case versionCmd.FullCommand():
		fmt.Printf("gdbt version %s\n", version)
		return
	case validateCmd.FullCommand():
		err = runValidate(ctx, logger, *scope, *update)
	case planCmd.FullCommand():
		err = runPlan(ctx, logger, *scope, *update)
	case applyCmd.FullCommand():
		err = runApply(ctx, logger, *scope, *update, *autoApprove)
	case destroyCmd.FullCommand():
		err = runDestroy(ctx, logger, *scope, *autoApprove)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString(app.RenderErr(err)))
		os.Exit(1)
	}
}

func runValidate(ctx context.Context, logger logr.Logger, scope string, update bool) error {
	a, err := app.Load(logger, scope, update)
	if err != nil {
		return err
	}
	if err := a.Validate(ctx); err != nil {
		return err
	}
	fmt.Println(color.GreenString("\nConfiguration is valid\n"))
	return nil
}

func runPlan(ctx context.Context, logger logr.Logger, scope string, update bool) error {
	a, err := app.Load(logger, scope, update)
	if err != nil {
		return err
	}
	p, _, _, err := a.Plan(ctx)
	if err != nil {
		return err
	}
	printPlan(p)
	if p.HasChanges() {
		fmt.Println("Run " + color.GreenString("gdbt apply") + " to apply these changes")
	}
	return nil
}

func runApply(ctx context.Context, logger logr.Logger, scope string, update, autoApprove bool) error {
	a, err := app.Load(logger, scope, update)
	if err != nil {
		return err
	}
	p, current, desired, err := a.Plan(ctx)
	if err != nil {
		return err
	}
	printPlan(p)
	if !p.HasChanges() {
		return nil
	}
	if !autoApprove && !confirm("Apply?") {
		return nil
	}

	duration, err := a.Apply(ctx, p, current, desired)
	if err != nil {
		return err
	}
	fmt.Println(color.GreenString(fmt.Sprintf(
		"\nDone! Modified %d resources in %.2f seconds.\n", len(p), duration.Seconds())))
	return nil
}

func runDestroy(ctx context.Context, logger logr.Logger, scope string, autoApprove bool) error {
	a, err := app.Load(logger, scope, false)
	if err != nil {
		return err
	}
	p, current, err := a.PlanDestroy(ctx)
	if err != nil {
		return err
	}
	printPlan(p)
	if !p.HasChanges() {
		return nil
	}
	if !autoApprove && !confirm("Apply?") {
		return nil
	}

	duration, err := a.Apply(ctx, p, current, map[string]resource.Resource{})
	if err != nil {
		return err
	}
	fmt.Println(color.GreenString(fmt.Sprintf(
		"\nDone! Removed %d resources in %.2f seconds.\n", len(p), duration.Seconds())))
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

func printPlan(p plan.Plan) {
	if !p.HasChanges() {
		fmt.Println(color.GreenString("\nDashboards are up to date!\n"))
		return
	}
	fmt.Println("\nPlanned changes:\n")
	fmt.Println(plan.Render(p))
	fmt.Println()
}
