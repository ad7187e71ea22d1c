package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/jsx"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/delaneyj/fiberparty/scheduler"
)

const (
	stepsKey      = "steps"
	concurrentKey = "concurrent"
	verboseKey    = "verbose"
	yieldKey      = "yield-every"
)

func main() {
	cmd := &cli.Command{
		Name:  "render",
		Usage: "Mount a todo list into the in-memory host and replay scripted updates",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  stepsKey,
				Usage: "Number of scripted updates to apply",
				Value: 6,
			},
			&cli.BoolFlag{
				Name:  concurrentKey,
				Usage: "Dispatch updates on the default lane instead of the sync lane",
			},
			&cli.UintFlag{
				Name:  yieldKey,
				Usage: "Yield to the scheduler after this many units of work (0 uses the frame budget)",
			},
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log reconciler and scheduler internals",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// todos holds the setters of the mounted app so the script can drive it.
type todos struct {
	setItems fiber.Setter[[]string]
	setDone  fiber.Setter[int]
}

func (td *todos) app() *fiber.Component {
	item := fiber.FC("Item", func(_ *fiber.Hooks, props fiber.Props) any {
		label := props["label"].(string)
		if props["done"].(bool) {
			label += " ✓"
		}
		return jsx.H("li", fiber.Props{"id": props["label"]}, label)
	})

	return fiber.FC("Todos", func(h *fiber.Hooks, _ fiber.Props) any {
		items, setItems := fiber.UseState(h, []string{"write", "review"})
		done, setDone := fiber.UseState(h, 0)
		td.setItems, td.setDone = setItems, setDone

		fiber.UseEffect(h, func() func() {
			log.Printf("effect: %d items, %d done", len(items), done)
			return nil
		}, []any{len(items), done})

		return jsx.H("section", nil,
			jsx.H("h1", nil, "todo (", len(items)-min(done, len(items)), " left)"),
			jsx.H("ul", nil, jsx.Children(items, func(i int, label string) *fiber.Element {
				return jsx.Keyed(label, item, fiber.Props{"label": label, "done": i < done})
			})),
		)
	})
}

func (td *todos) step(i int) string {
	switch {
	case i%4 == 3:
		td.setItems.Update(func(prev []string) []string {
			if len(prev) == 0 {
				return prev
			}
			return append([]string(nil), prev[1:]...)
		})
		return "drop first"
	case i%3 == 2:
		td.setItems.Update(func(prev []string) []string {
			if len(prev) < 2 {
				return prev
			}
			next := append([]string{prev[len(prev)-1]}, prev[:len(prev)-1]...)
			return next
		})
		return "rotate"
	case i%2 == 1:
		td.setDone.Update(func(prev int) int { return prev + 1 })
		return "complete one"
	default:
		label := "task-" + strconv.Itoa(i)
		td.setItems.Update(func(prev []string) []string {
			return append(append([]string(nil), prev...), label)
		})
		return "add " + label
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if cmd.Bool(verboseKey) {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	schedOpts := []scheduler.Option{scheduler.WithLogger(logger)}
	if n := cmd.Uint(yieldKey); n > 0 {
		schedOpts = append(schedOpts, scheduler.WithYieldEvery(int(n)))
	}
	sched := scheduler.New(schedOpts...)
	host := memhost.New(sched)

	var renderErr error
	rec := fiber.NewReconciler(host, sched,
		fiber.WithLogger(logger),
		fiber.WithOnError(func(_ *fiber.Root, err error) {
			renderErr = err
		}),
	)
	container := host.NewContainer()
	root := rec.CreateContainer(container)

	td := &todos{}
	root.Render(jsx.H(td.app(), nil))
	sched.RunUntilIdle()
	if renderErr != nil {
		return fmt.Errorf("mount: %w", renderErr)
	}
	report("mount", 0, host, container)

	lane := fiber.SyncLane
	if cmd.Bool(concurrentKey) {
		lane = fiber.DefaultLane
	}
	for i := 0; i < int(cmd.Uint(stepsKey)); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		host.ResetOps()

		var what string
		rec.WithLane(lane, func() { what = td.step(i) })
		slices := sched.RunUntilIdle()
		if renderErr != nil {
			return fmt.Errorf("step %d: %w", i, renderErr)
		}
		report(what, slices, host, container)
	}

	log.Printf("%d commits", root.Commits())
	return nil
}

func report(what string, slices int, host *memhost.Host, container *memhost.Node) {
	log.Printf("%-14s slices=%d ops=%d checksum=%016x", what, slices, len(host.Ops()), container.Checksum())
	log.Printf("  %s", memhost.Markup(container))
}
