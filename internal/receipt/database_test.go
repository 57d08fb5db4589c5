package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newScan := func(id string, createdAt time.Time) *Scan {
		return &Scan{
			ID:               id,
			OriginalFilename: "receipt.jpg",
			Filename:         id + "_receipt.jpg",
			ContentType:      "image/jpeg",
			Size:             42,
			Payload:          dinnerPayload,
			CreatedAt:        createdAt,
		}
	}

	Describe("SaveScan and GetScan", func() {
		var saved *Scan

		BeforeEach(func() {
			saved = newScan("scan-1", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
			Expect(db.SaveScan(saved)).To(Succeed())
		})

		It("should round-trip every field", func() {
			got, err := db.GetScan("scan-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(saved.ID))
			Expect(got.OriginalFilename).To(Equal(saved.OriginalFilename))
			Expect(got.Filename).To(Equal(saved.Filename))
			Expect(got.ContentType).To(Equal(saved.ContentType))
			Expect(got.Size).To(Equal(saved.Size))
			Expect(got.Payload).To(Equal(saved.Payload))
			Expect(got.CreatedAt.Equal(saved.CreatedAt)).To(BeTrue())
		})

		When("the scan is saved again", func() {
			BeforeEach(func() {
				saved.Payload = `{"total":1}`
				Expect(db.SaveScan(saved)).To(Succeed())
			})

			It("should overwrite the record", func() {
				got, err := db.GetScan("scan-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Payload).To(Equal(`{"total":1}`))
			})
		})

		When("the scan does not exist", func() {
			It("should return ErrScanNotFound", func() {
				_, err := db.GetScan("missing")
				Expect(err).To(MatchError(ErrScanNotFound))
			})
		})
	})

	Describe("ListScans", func() {
		When("scans exist", func() {
			BeforeEach(func() {
				Expect(db.SaveScan(newScan("old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
				Expect(db.SaveScan(newScan("new", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
				Expect(db.SaveScan(newScan("mid", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
			})

			It("should return them newest first", func() {
				scans, err := db.ListScans()
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, 0, len(scans))
				for _, s := range scans {
					ids = append(ids, s.ID)
				}
				Expect(ids).To(Equal([]string{"new", "mid", "old"}))
			})
		})

		When("no scans exist", func() {
			It("should return an empty, non-nil slice", func() {
				scans, err := db.ListScans()
				Expect(err).NotTo(HaveOccurred())
				Expect(scans).NotTo(BeNil())
				Expect(scans).To(BeEmpty())
			})
		})
	})

	Describe("DeleteScan", func() {
		BeforeEach(func() {
			Expect(db.SaveScan(newScan("scan-1", time.Now()))).To(Succeed())
		})

		It("should remove the scan", func() {
			Expect(db.DeleteScan("scan-1")).To(Succeed())
			_, err := db.GetScan("scan-1")
			Expect(err).To(MatchError(ErrScanNotFound))
		})

		It("should not fail for an unknown ID", func() {
			Expect(db.DeleteScan("missing")).To(Succeed())
		})
	})

	Describe("reopening", func() {
		It("should keep saved scans", func() {
			Expect(db.SaveScan(newScan("scan-1", time.Now()))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			db = reopened

			got, err := db.GetScan("scan-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("scan-1"))
		})
	})
})
