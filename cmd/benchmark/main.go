package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/delaneyj/fibertree/fiber"
	"github.com/delaneyj/fibertree/memhost"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var profile = flag.String("cpuprofile", "", "write a cpu profile to this file")

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
	benchmarkCounter(true)
}

var (
	sizes = []int{1, 10, 100, 1_000}
	iters = 100
)

func keyedList(keys []int, label func(int) string) fiber.Node {
	items := make([]fiber.Node, len(keys))
	for i, k := range keys {
		items[i] = fiber.H("li", fiber.Props{"key": k, "data-id": k}, label(k))
	}
	return fiber.H("ul", fiber.Props{"id": "list"}, items)
}

func plain(k int) string { return strconv.Itoa(k) }

func newReconciler() (*fiber.Reconciler, *memhost.Node) {
	h := memhost.New()
	container := h.NewContainer("root")
	r, err := fiber.New(h, fiber.WithOnError(func(from *fiber.Fiber, err error) {
		log.Panic(err)
	}))
	if err != nil {
		log.Panic(err)
	}
	return r, container
}

func sequence(n int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}
	return keys
}

func rotate(keys []int) []int {
	if len(keys) == 0 {
		return keys
	}
	out := make([]int, 0, len(keys))
	out = append(out, keys[len(keys)-1])
	return append(out, keys[:len(keys)-1]...)
}

func benchmarkKeyedList(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Keyed list")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	type scenario struct {
		name string
		step func(r *fiber.Reconciler, container *memhost.Node, keys []int, i int) []int
	}
	scenarios := []scenario{
		{"mount", func(r *fiber.Reconciler, container *memhost.Node, keys []int, i int) []int {
			r.Mount(keyedList(keys, plain), container, nil)
			if err := r.Unmount(container); err != nil {
				log.Panic(err)
			}
			return keys
		}},
		{"relabel", func(r *fiber.Reconciler, container *memhost.Node, keys []int, i int) []int {
			r.Mount(keyedList(keys, func(k int) string { return strconv.Itoa(k + i) }), container, nil)
			return keys
		}},
		{"rotate", func(r *fiber.Reconciler, container *memhost.Node, keys []int, i int) []int {
			keys = rotate(keys)
			r.Mount(keyedList(keys, plain), container, nil)
			return keys
		}},
		{"append", func(r *fiber.Reconciler, container *memhost.Node, keys []int, i int) []int {
			keys = append(keys, len(keys))
			r.Mount(keyedList(keys, plain), container, nil)
			return keys
		}},
	}

	for _, sc := range scenarios {
		for _, n := range sizes {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			r, container := newReconciler()
			keys := sequence(n)
			if sc.name != "mount" {
				r.Mount(keyedList(keys, plain), container, nil)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				keys = sc.step(r, container, keys, i)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("%s: %d", sc.name, n),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkCounter measures a single state hook update inside lists of
// static siblings, which should bail out.
func benchmarkCounter(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Hook updates")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	static := fiber.FC("Static", func(h *fiber.Hooks, props fiber.Props) fiber.Node {
		return fiber.H("span", nil, props["n"])
	})

	for _, n := range sizes {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		var set *fiber.Setter[int]
		counter := fiber.FC("Counter", func(h *fiber.Hooks, props fiber.Props) fiber.Node {
			v, s := fiber.UseState(h, 0)
			set = s
			return fiber.H("b", nil, v)
		})
		siblings := make([]fiber.Node, n)
		for i := range siblings {
			siblings[i] = fiber.H(static, fiber.Props{"key": i, "n": i})
		}

		r, container := newReconciler()
		r.Mount(fiber.H("main", nil, fiber.H(counter, nil), siblings), container, nil)

		for i := 0; i < iters; i++ {
			start := time.Now()
			set.Set(i + 1)
			tach.AddTime(time.Since(start))
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("set state beside %d", n),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	if shouldRender {
		tbl.Render()
	}
}
