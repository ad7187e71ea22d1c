package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"
	"slices"
	"strconv"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/jsx"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/delaneyj/fiberparty/scheduler"
)

var (
	profile = flag.String("profile", "", "write a CPU profile to this file")
	iters   = flag.Int("iters", 100, "updates measured per row")
)

var sizes = []int{10, 100, 1_000, 10_000}

type listOp struct {
	name  string
	apply func(rng *rand.Rand, keys []int) []int
}

var ops = []listOp{
	{"swap rows", func(_ *rand.Rand, keys []int) []int {
		next := slices.Clone(keys)
		if len(next) > 2 {
			next[1], next[len(next)-2] = next[len(next)-2], next[1]
		}
		return next
	}},
	{"reverse", func(_ *rand.Rand, keys []int) []int {
		next := slices.Clone(keys)
		slices.Reverse(next)
		return next
	}},
	{"move last to front", func(_ *rand.Rand, keys []int) []int {
		return append([]int{keys[len(keys)-1]}, keys[:len(keys)-1]...)
	}},
	{"remove every 10th", func(_ *rand.Rand, keys []int) []int {
		next := make([]int, 0, len(keys))
		for i, k := range keys {
			if i%10 != 0 {
				next = append(next, k)
			}
		}
		return next
	}},
	{"shuffle", func(rng *rand.Rand, keys []int) []int {
		next := slices.Clone(keys)
		rng.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
		return next
	}},
}

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkKeyedList(false)
	benchmarkKeyedList(true)
}

func row(k int) *fiber.Element {
	label := "row " + strconv.Itoa(k)
	return jsx.Keyed(strconv.Itoa(k), "tr", fiber.Props{"id": k},
		jsx.H("td", nil, k),
		jsx.H("td", nil, label),
	)
}

func list(keys []int) *fiber.Element {
	return jsx.H("tbody", nil, jsx.Children(keys, func(_ int, k int) *fiber.Element {
		return row(k)
	}))
}

func benchmarkKeyedList(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Keyed list reconciliation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "host ops"})

	rng := rand.New(rand.NewSource(1))
	for _, size := range sizes {
		for _, op := range ops {
			sched := scheduler.New()
			host := memhost.New(sched)
			rec := fiber.NewReconciler(host, sched, fiber.WithOnError(func(_ *fiber.Root, err error) {
				log.Panic(err)
			}))
			root := rec.CreateContainer(host.NewContainer())

			keys := make([]int, size)
			for i := range keys {
				keys[i] = i
			}
			root.Render(list(keys))
			sched.RunUntilIdle()

			tach := tachymeter.New(&tachymeter.Config{Size: *iters})
			hostOps := 0
			for i := 0; i < *iters; i++ {
				next := op.apply(rng, keys)
				if len(next) == 0 {
					next = slices.Clone(keys)
				}
				el := list(next)
				host.ResetOps()

				start := time.Now()
				root.Render(el)
				sched.RunUntilIdle()
				tach.AddTime(time.Since(start))

				hostOps += len(host.Ops())
				keys = next
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("%s: %d rows", op.name, size),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					hostOps / *iters,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
