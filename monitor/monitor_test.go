package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/rs/zerolog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"powdemo/engine"
	"powdemo/fps"
	"powdemo/gate"
)

var _ = Describe("Monitor", func() {
	var (
		eng *engine.Engine
		g   *gate.Gate
		m   *Monitor
		h   http.Handler
	)

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		eng = engine.New(engine.Config{Modulus: 3})
		g = &gate.Gate{}
		clock := time.Unix(1700000000, 0)
		f := fps.New(func() time.Time { return clock })
		f.Tick()
		f.Tick()
		m = New(eng, g, f, "session-1", zerolog.Nop())
		h = m.Handler()
	})

	It("should report the counter state", func() {
		for i := 0; i < 10; i++ {
			eng.Tick()
		}

		rec := do(http.MethodGet, "/api/state")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

		var rsp stateRsp
		decode(rec, &rsp)
		Expect(rsp.Session).To(Equal("session-1"))
		Expect(rsp.Power).To(Equal("11"))
		Expect(rsp.Value).To(Equal("1024"))
		Expect(rsp.Bits).To(Equal(11))
		Expect(rsp.Digits).To(Equal(4))
		Expect(rsp.Modulus).To(Equal(3))
		Expect(rsp.FPS).To(Equal(2))
		Expect(rsp.Paused).To(BeFalse())
	})

	It("should summarize large values unless asked for the full value", func() {
		for i := 0; i < 1000; i++ {
			eng.Tick()
		}

		var rsp stateRsp
		decode(do(http.MethodGet, "/api/state"), &rsp)
		Expect(rsp.Value).To(BeEmpty())
		Expect(rsp.ValueHead).To(HavePrefix("10715086"))
		Expect(rsp.ValueTail).To(HaveSuffix("9376"))
		Expect(rsp.Digits).To(Equal(302))

		decode(do(http.MethodGet, "/api/state?full=1"), &rsp)
		Expect(rsp.Value).To(HaveLen(302))
		Expect(rsp.Value).To(HavePrefix(rsp.ValueHead))
		Expect(rsp.Value).To(HaveSuffix(rsp.ValueTail))
	})

	It("should pause, continue and toggle", func() {
		var rsp pausedRsp

		decode(do(http.MethodPost, "/api/pause"), &rsp)
		Expect(rsp.Paused).To(BeTrue())
		Expect(g.Paused()).To(BeTrue())

		decode(do(http.MethodPost, "/api/continue"), &rsp)
		Expect(rsp.Paused).To(BeFalse())
		Expect(g.Paused()).To(BeFalse())

		decode(do(http.MethodPost, "/api/toggle"), &rsp)
		Expect(rsp.Paused).To(BeTrue())
		decode(do(http.MethodPost, "/api/toggle"), &rsp)
		Expect(rsp.Paused).To(BeFalse())
	})

	It("should only accept POST for control routes", func() {
		Expect(do(http.MethodGet, "/api/pause").Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(g.Paused()).To(BeFalse())
	})

	It("should set the modulus without touching the value", func() {
		eng.Tick()
		eng.Tick()

		rec := do(http.MethodPost, "/api/modulus/750")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp modulusRsp
		decode(rec, &rsp)
		Expect(rsp.Modulus).To(Equal(750))
		Expect(eng.Modulus()).To(Equal(750))

		st := eng.Snapshot()
		Expect(st.Value.Int64()).To(Equal(int64(4)))
		Expect(st.Power.Int64()).To(Equal(int64(3)))
	})

	DescribeTable("should reject invalid moduli",
		func(n string) {
			rec := do(http.MethodPost, "/api/modulus/"+n)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var rsp errorRsp
			decode(rec, &rsp)
			Expect(rsp.Error).NotTo(BeEmpty())
			Expect(eng.Modulus()).To(Equal(3))
		},
		Entry("zero", "0"),
		Entry("negative", "-4"),
		Entry("not a number", "abc"),
	)

	It("should report process resources", func() {
		rec := do(http.MethodGet, "/api/resource")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		decode(rec, &rsp)
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve on a random port and shut down", func() {
		addr, err := m.Start("127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		_, err = m.Start("127.0.0.1:0")
		Expect(err).To(HaveOccurred())

		resp, err := http.Post(fmt.Sprintf("http://%s/api/pause", addr), "", nil)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(g.Paused()).To(BeTrue())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(m.Shutdown(ctx)).To(Succeed())
		Expect(m.Shutdown(ctx)).To(Succeed())
	})
})
