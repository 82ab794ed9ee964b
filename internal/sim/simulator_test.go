package sim_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/compute"
	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/metrics"
	"github.com/san-kum/massgrid/internal/sim"
	"github.com/san-kum/massgrid/internal/touch"
)

const dt = 0.016

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cubeConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Params = dynamo.Params{Mass: 1, Damping: 0.1, Stiffness: 10, RestLength: 1, MaxTouchForce: 100}
	return cfg
}

var _ = Describe("Simulator", func() {
	var s *sim.Simulator

	BeforeEach(func() {
		s = sim.New(cubeConfig(), sim.WithLogger(quietLogger()))
	})

	Describe("lifecycle", func() {
		It("starts uninitialized and refuses to step", func() {
			Expect(s.Status()).To(Equal(sim.Uninitialized))
			Expect(s.Step(dt, nil)).To(MatchError(dynamo.ErrNotInitialized))
			_, err := s.Positions()
			Expect(err).To(MatchError(dynamo.ErrNotInitialized))
		})

		It("steps once initialized", func() {
			Expect(s.Initialize()).To(Succeed())
			Expect(s.Status()).To(Equal(sim.Initialized))
			Expect(s.Step(dt, nil)).To(Succeed())
			Expect(s.StepCount()).To(Equal(1))
			Expect(s.Time()).To(BeNumerically("~", dt, 1e-12))
		})

		It("reports the backend it steps with", func() {
			be := compute.NewCPUBackend(3)
			withBackend := sim.New(cubeConfig(), sim.WithLogger(quietLogger()), sim.WithBackend(be))
			Expect(withBackend.Initialize()).To(Succeed())
			Expect(withBackend.Backend()).To(BeIdenticalTo(compute.Backend(be)))

			cfg := cubeConfig()
			cfg.Workers = 2
			sized := sim.New(cfg, sim.WithLogger(quietLogger()))
			Expect(sized.Backend()).To(BeNil())
			Expect(sized.Initialize()).To(Succeed())
			cpu, ok := sized.Backend().(*compute.CPUBackend)
			Expect(ok).To(BeTrue())
			Expect(cpu.Workers()).To(Equal(2))
		})

		It("treats a second Initialize as a no-op", func() {
			Expect(s.Initialize()).To(Succeed())
			Expect(s.Step(dt, nil)).To(Succeed())
			Expect(s.Initialize()).To(Succeed())
			Expect(s.StepCount()).To(Equal(1))
		})

		It("refuses to step after release", func() {
			Expect(s.Initialize()).To(Succeed())
			s.Release()
			Expect(s.Status()).To(Equal(sim.Released))
			Expect(s.Step(dt, nil)).To(MatchError(dynamo.ErrReleased))
			Expect(s.Initialize()).To(MatchError(dynamo.ErrReleased))
		})

		It("releases twice without error", func() {
			Expect(s.Initialize()).To(Succeed())
			s.Release()
			Expect(func() { s.Release() }).NotTo(Panic())
			Expect(s.Status()).To(Equal(sim.Released))
		})

		It("releases a simulator that was never initialized", func() {
			Expect(func() { s.Release() }).NotTo(Panic())
			Expect(s.Step(dt, nil)).To(MatchError(dynamo.ErrReleased))
		})

		It("rejects a non-positive dt", func() {
			Expect(s.Initialize()).To(Succeed())
			Expect(s.Step(0, nil)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(s.Step(-dt, nil)).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("configuration", func() {
		DescribeTable("fails fast on degenerate grids",
			func(mod func(c *sim.Config)) {
				cfg := cubeConfig()
				mod(&cfg)
				bad := sim.New(cfg, sim.WithLogger(quietLogger()))
				Expect(bad.Initialize()).To(MatchError(dynamo.ErrInvalidConfig))
				Expect(bad.Status()).To(Equal(sim.Uninitialized))
			},
			Entry("zero layers", func(c *sim.Config) { c.Layers = 0 }),
			Entry("zero block size", func(c *sim.Config) { c.BlockSizeX = 0 }),
			Entry("zero blocks", func(c *sim.Config) { c.BlocksY = 0 }),
			Entry("zero mass", func(c *sim.Config) { c.Params.Mass = 0 }),
			Entry("damping out of range", func(c *sim.Config) { c.Params.Damping = 1.5 }),
		)

		It("derives dims from blocks", func() {
			cfg := cubeConfig()
			cfg.BlockSizeX, cfg.BlocksX = 3, 2
			cfg.BlockSizeY, cfg.BlocksY = 5, 1
			cfg.Layers = 2
			Expect(cfg.Dims().X).To(Equal(6))
			Expect(cfg.Dims().Y).To(Equal(5))
			Expect(cfg.Dims().Count()).To(Equal(60))
		})
	})

	Describe("physics", func() {
		BeforeEach(func() {
			Expect(s.Initialize()).To(Succeed())
		})

		It("keeps the resting grid fixed", func() {
			rest, err := s.Positions()
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 50; i++ {
				Expect(s.Step(dt, nil)).To(Succeed())
			}
			now, err := s.Positions()
			Expect(err).NotTo(HaveOccurred())
			Expect(now).To(Equal(rest))
		})

		DescribeTable("stays at rest for any spacing",
			func(restLength float64) {
				cfg := cubeConfig()
				cfg.Params.RestLength = restLength
				grid := sim.New(cfg, sim.WithLogger(quietLogger()))
				Expect(grid.Initialize()).To(Succeed())
				defer grid.Release()

				rest, err := grid.RestPositions()
				Expect(err).NotTo(HaveOccurred())
				Expect(grid.Run(context.Background(), 2000, dt, nil)).To(Succeed())
				now, err := grid.Positions()
				Expect(err).NotTo(HaveOccurred())
				for i := range now {
					Expect(r3.Norm(r3.Sub(now[i], rest[i]))).To(BeNumerically("<=", 1e-12), "node %d", i)
				}
			},
			Entry("0.7", 0.7),
			Entry("1.3", 1.3),
			Entry("3", 3.0),
		)

		It("spreads a single touch to the node and its six spread neighbours", func() {
			events := []touch.Event{{Node: 21, Pressure: r3.Vec{Z: 1}}}
			Expect(s.Step(dt, events)).To(Succeed())

			vel, err := s.Velocities()
			Expect(err).NotTo(HaveOccurred())

			full := vel[21].Y
			Expect(full).To(BeNumerically("<", 0))
			Expect(full).To(BeNumerically("~", -100*dt, 1e-12))

			spread := []int{25, 22, 17, 20, 37, 5}
			for _, n := range spread {
				Expect(vel[n].Y).To(BeNumerically("~", full/2, 1e-12), "node %d", n)
				Expect(vel[n].X).To(BeZero())
				Expect(vel[n].Z).To(BeZero())
			}

			touched := map[int]bool{21: true}
			for _, n := range spread {
				touched[n] = true
			}
			for i, v := range vel {
				if !touched[i] {
					Expect(v).To(Equal(r3.Vec{}), "node %d", i)
				}
			}
		})

		It("never moves boundary nodes", func() {
			rest, _ := s.RestPositions()
			dims := s.Dims()
			for i := 0; i < 120; i++ {
				events := []touch.Event{
					{Node: 21, Pressure: r3.Vec{X: 0.3, Z: 1}},
					{Node: 0, Pressure: r3.Vec{Y: 1}},
				}
				Expect(s.Step(dt, events)).To(Succeed())
			}
			pos, _ := s.Positions()
			moved := false
			for i := range pos {
				if dims.IsBoundary(i) {
					Expect(pos[i]).To(Equal(rest[i]), "boundary node %d", i)
				} else if pos[i] != rest[i] {
					moved = true
				}
			}
			Expect(moved).To(BeTrue())
		})

		It("drops out-of-range touches without failing the frame", func() {
			events := []touch.Event{{Node: 64, Pressure: r3.Vec{Z: 1}}, {Node: -3}}
			Expect(s.Step(dt, events)).To(Succeed())
			vel, _ := s.Velocities()
			for _, v := range vel {
				Expect(v).To(Equal(r3.Vec{}))
			}
		})

		It("resets to rest", func() {
			Expect(s.Step(dt, []touch.Event{{Node: 21, Pressure: r3.Vec{Z: 1}}})).To(Succeed())
			Expect(s.Step(dt, nil)).To(Succeed())
			Expect(s.Reset()).To(Succeed())

			pos, _ := s.Positions()
			rest, _ := s.RestPositions()
			Expect(pos).To(Equal(rest))
			Expect(s.StepCount()).To(BeZero())
		})
	})

	Describe("tuning", func() {
		BeforeEach(func() {
			Expect(s.Initialize()).To(Succeed())
		})

		It("accepts in-range values", func() {
			Expect(s.SetParam("stiffness", 30)).To(Succeed())
			Expect(s.Params().Stiffness).To(Equal(30.0))
			Expect(s.GetParams()).To(HaveKeyWithValue("stiffness", 30.0))
		})

		It("rejects out-of-range values and keeps the old one", func() {
			Expect(s.SetParam("mass", -1)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(s.Params().Mass).To(Equal(1.0))
		})

		It("scales touch force with max_touch_force", func() {
			Expect(s.SetParam("max_touch_force", 10)).To(Succeed())
			Expect(s.Step(dt, []touch.Event{{Node: 21, Pressure: r3.Vec{Z: 1}}})).To(Succeed())
			vel, _ := s.Velocities()
			Expect(vel[21].Y).To(BeNumerically("~", -10*dt, 1e-12))
		})

		It("relaxes toward a new rest length", func() {
			before, _ := s.Positions()
			Expect(s.SetParam("rest_length", 1.2)).To(Succeed())
			Expect(s.Step(dt, nil)).To(Succeed())
			Expect(s.Step(dt, nil)).To(Succeed())
			after, _ := s.Positions()
			Expect(after).NotTo(Equal(before))
		})
	})

	Describe("publishing", func() {
		It("hands every observer a snapshot per frame", func() {
			var frames []dynamo.Frame
			s.AddObserver(sim.ObserverFunc(func(f dynamo.Frame) {
				cp := f
				cp.Positions = append([]r3.Vec(nil), f.Positions...)
				frames = append(frames, cp)
			}))
			Expect(s.Initialize()).To(Succeed())

			for i := 0; i < 3; i++ {
				Expect(s.Step(dt, nil)).To(Succeed())
			}

			Expect(frames).To(HaveLen(3))
			Expect(frames[2].Step).To(Equal(3))
			Expect(frames[2].Positions).To(HaveLen(64))
			Expect(frames[2].Time).To(BeNumerically("~", 3*dt, 1e-12))
		})

		It("publishes the frame that diverged before failing", func() {
			cfg := cubeConfig()
			cfg.Params.Stiffness = 1e6
			stiff := sim.New(cfg, sim.WithLogger(quietLogger()))
			Expect(stiff.Initialize()).To(Succeed())
			defer stiff.Release()

			stability := metrics.NewStability()
			stiff.AddObserver(metrics.NewSet(stability))

			script := touch.NewScript()
			for f := 0; f < 5; f++ {
				script.At(f, touch.Event{Node: 21, Pressure: r3.Vec{X: 0.2, Z: 1}})
			}
			err := stiff.Run(context.Background(), 5000, dt, script)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
			Expect(stability.Value()).To(BeNumerically("<", 1))
			Expect(stiff.StepCount()).To(BeNumerically("<", 5000))
		})

		It("does not let observers mutate the grid", func() {
			s.AddObserver(sim.ObserverFunc(func(f dynamo.Frame) {
				f.Positions[21] = r3.Vec{X: 1e9}
			}))
			Expect(s.Initialize()).To(Succeed())
			Expect(s.Step(dt, nil)).To(Succeed())

			pos, _ := s.Positions()
			Expect(pos[21].X).NotTo(Equal(1e9))
		})
	})

	Describe("running", func() {
		BeforeEach(func() {
			Expect(s.Initialize()).To(Succeed())
		})

		It("drains the queue each tick", func() {
			q := touch.NewQueue()
			q.Push(touch.Event{Node: 21, Pressure: r3.Vec{Z: 1}})
			Expect(s.Tick(dt, q)).To(Succeed())
			Expect(q.Len()).To(BeZero())
		})

		It("runs a script for the requested frames", func() {
			script := touch.NewScript().At(0, touch.Event{Node: 21, Pressure: r3.Vec{Z: 1}})
			Expect(s.Run(context.Background(), 10, dt, script)).To(Succeed())
			Expect(s.StepCount()).To(Equal(10))
			Expect(script.Frame()).To(Equal(10))
		})

		It("stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(s.Run(ctx, 10, dt, nil)).To(MatchError(context.Canceled))
			Expect(s.StepCount()).To(BeZero())
		})
	})
})

var _ = Describe("FramePool", func() {
	It("returns cleared snapshots of the configured size", func() {
		pool := sim.NewFramePool(4)
		s1 := pool.Get()
		Expect(s1).To(HaveLen(4))
		s1[0] = r3.Vec{X: 1}
		pool.Put(s1)

		s2 := pool.Get()
		Expect(s2[0]).To(Equal(r3.Vec{}))
	})

	It("ignores foreign sizes", func() {
		pool := sim.NewFramePool(4)
		Expect(func() { pool.Put(make([]r3.Vec, 3)) }).NotTo(Panic())
		Expect(pool.Get()).To(HaveLen(4))
	})
})
