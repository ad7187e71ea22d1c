package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/jsx"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/delaneyj/fiberparty/scheduler"
)

func main() {
	log.Print("Starting tree benchmark, please wait...")
	defer log.Print("Finished tree benchmark")

	cfgs := []treeConfig{
		{name: "wide", fanout: 1000, depth: 1, iterations: 200},
		{name: "deep", fanout: 1, depth: 500, iterations: 200},
		{name: "balanced", fanout: 4, depth: 6, iterations: 100},
		{name: "bushy", fanout: 10, depth: 3, iterations: 100},
		{name: "balanced concurrent", fanout: 4, depth: 6, iterations: 100, lane: fiber.DefaultLane},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "shape", "fibers", "lane", "mount", "nTimes", "best update", "slices", "updateRate",
	})

	testRepeats := 5
	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)
		best := results{update: time.Hour}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)
			res := runTree(cfg)
			if res.update < best.update {
				best = res
			}
		}

		updateRate := float64(cfg.iterations) / (float64(best.update) / float64(time.Second))
		lane := cfg.lane
		if lane == fiber.NoLane {
			lane = fiber.SyncLane
		}
		table.Append([]string{
			cfg.name,
			fmt.Sprintf("%dx%d", cfg.fanout, cfg.depth),
			humanize.Comma(int64(best.fibers)),
			lane.String(),
			fmt.Sprint(best.mount),
			humanize.Comma(int64(cfg.iterations)),
			fmt.Sprint(best.update),
			humanize.Comma(int64(best.slices)),
			humanize.Comma(int64(updateRate)) + "/s",
		})
	}
	table.Render()
}

type treeConfig struct {
	name       string
	fanout     int // children per node
	depth      int // levels below the root
	iterations int
	lane       fiber.Lane
}

type results struct {
	fibers int
	mount  time.Duration
	update time.Duration
	slices int
}

// runTree mounts a tree of function components with one counter at the root
// and measures how long each counter increment takes to commit.
func runTree(cfg treeConfig) results {
	sched := scheduler.New()
	host := memhost.New(sched)

	var fibers int
	rec := fiber.NewReconciler(host, sched,
		fiber.WithOnError(func(_ *fiber.Root, err error) {
			log.Panic(err)
		}),
		fiber.WithOnCommit(func(_ *fiber.Root, finished *fiber.Fiber) {
			fibers = countFibers(finished)
		}),
	)
	root := rec.CreateContainer(host.NewContainer())

	var node *fiber.Component
	node = fiber.FC("Node", func(_ *fiber.Hooks, props fiber.Props) any {
		level, tick := props["level"].(int), props["tick"].(int)
		if level == cfg.depth {
			return jsx.H("span", nil, tick)
		}
		children := make([]any, cfg.fanout)
		for i := range children {
			children[i] = jsx.Keyed(strconv.Itoa(i), node, fiber.Props{"level": level + 1, "tick": tick})
		}
		return jsx.H("div", nil, children...)
	})

	var bump fiber.Setter[int]
	app := fiber.FC("App", func(h *fiber.Hooks, _ fiber.Props) any {
		tick, setTick := fiber.UseState(h, 0)
		bump = setTick
		return jsx.H(node, fiber.Props{"level": 0, "tick": tick})
	})

	start := time.Now()
	root.Render(jsx.H(app, nil))
	sched.RunUntilIdle()
	res := results{mount: time.Since(start)}

	start = time.Now()
	for i := 0; i < cfg.iterations; i++ {
		if cfg.lane == fiber.NoLane {
			bump.Update(func(prev int) int { return prev + 1 })
		} else {
			rec.WithLane(cfg.lane, func() {
				bump.Update(func(prev int) int { return prev + 1 })
			})
		}
		res.slices += sched.RunUntilIdle()
	}
	res.update = time.Since(start)
	res.fibers = fibers
	return res
}

func countFibers(f *fiber.Fiber) int {
	if f == nil {
		return 0
	}
	n := 1
	for c := f.Child(); c != nil; c = c.Sibling() {
		n += countFibers(c)
	}
	return n
}
