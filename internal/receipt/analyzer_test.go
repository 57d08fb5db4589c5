package receipt

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-tracker/internal/expense"
)

var _ = Describe("Analyzer", func() {
	var (
		storage  *mockStorage
		scanner  *mockScanner
		analyzer *Analyzer
		ctx      context.Context
		req      expense.AnalysisRequest
		resp     *expense.AnalysisResponse
		err      error
	)

	BeforeEach(func() {
		storage = newMockStorage()
		scanner = newMockScanner()
		service := NewServiceWithDeps(newMockDB(), scanner, storage,
			&mockIDGenerator{id: "scan-1"}, &mockTimeSource{now: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)})
		analyzer = NewAnalyzer(service)
		ctx = context.Background()
		req = expense.AnalysisRequest{
			Image:    base64.StdEncoding.EncodeToString([]byte("image bytes")),
			MimeType: "image/png",
			Filename: "lunch.png",
		}
	})

	JustBeforeEach(func() {
		resp, err = analyzer.Analyze(ctx, req)
	})

	When("the scan succeeds", func() {
		It("should answer with the scanner output", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Data).To(Equal(dinnerPayload))
		})

		It("should store the decoded image", func() {
			Expect(storage.files).To(HaveKeyWithValue("scan-1_lunch.png", []byte("image bytes")))
		})
	})

	When("the image is not valid base64", func() {
		BeforeEach(func() {
			req.Image = "not base64!"
		})

		It("should answer with a failure without scanning", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Success).To(BeFalse())
			Expect(resp.Error).To(Equal(invalidImageMessage))
			Expect(scanner.Calls()).To(Equal(0))
		})
	})

	When("the scan fails", func() {
		BeforeEach(func() {
			scanner.scanErr = errors.New("model unavailable")
		})

		It("should answer with the generic failure message", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Success).To(BeFalse())
			Expect(resp.Error).To(Equal(processFailedMessage))
		})
	})

	When("the context is cancelled", func() {
		BeforeEach(func() {
			cancelled, cancel := context.WithCancel(context.Background())
			cancel()
			ctx = cancelled
			scanner.scanErr = context.Canceled
		})

		It("should return the cancellation", func() {
			Expect(err).To(MatchError(context.Canceled))
			Expect(resp).To(BeNil())
		})
	})
})

var _ = Describe("Sessions", func() {
	var sessions *Sessions

	BeforeEach(func() {
		sessions = NewSessions(nil)
	})

	It("should create one session per user", func() {
		alice := sessions.Get("alice")
		Expect(sessions.Get("alice")).To(BeIdenticalTo(alice))
		Expect(sessions.Get("bob")).NotTo(BeIdenticalTo(alice))
		Expect(sessions.Len()).To(Equal(2))
	})

	It("should start a fresh session after Drop", func() {
		first := sessions.Get("alice")
		Expect(sessions.Drop("alice")).To(Succeed())
		Expect(sessions.Len()).To(Equal(0))
		Expect(sessions.Get("alice")).NotTo(BeIdenticalTo(first))

		_, err := first.Run(context.Background(), []expense.FileDescriptor{{Name: "late.png", Payload: []byte("x")}})
		Expect(err).To(MatchError(expense.ErrSessionClosed))
	})

	It("should ignore Drop for an unknown user", func() {
		Expect(sessions.Drop("nobody")).To(Succeed())
	})

	When("a batch is running", func() {
		var scanner *mockScanner

		BeforeEach(func() {
			scanner = newMockScanner()
			scanner.started = make(chan struct{}, 1)
			scanner.release = make(chan struct{})
			service := NewServiceWithDeps(newMockDB(), scanner, newMockStorage(),
				&mockIDGenerator{id: "scan-1"}, &mockTimeSource{now: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)})
			sessions = NewSessions(NewAnalyzer(service))
		})

		It("should keep the session and refuse to drop it", func() {
			session := sessions.Get("alice")
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				_, err := session.Run(context.Background(), []expense.FileDescriptor{{
					Name: "lunch.png", Size: 11, Payload: []byte("image bytes"), MediaType: "image/png",
				}})
				done <- err
			}()
			Eventually(scanner.started).Should(Receive())

			Expect(sessions.Drop("alice")).To(MatchError(expense.ErrBatchRunning))
			Expect(sessions.Get("alice")).To(BeIdenticalTo(session))

			close(scanner.release)
			Eventually(done).Should(Receive(BeNil()))
			Expect(sessions.Drop("alice")).To(Succeed())
			Expect(sessions.Len()).To(Equal(0))
		})
	})

	It("should start sessions idle with an empty ledger", func() {
		session := sessions.Get("alice")
		Expect(session.State()).To(Equal(expense.Idle))
		Expect(session.Ledger().Monthly).To(BeEmpty())
	})
})
