package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		baseDir string
		storage *LocalStorage
	)

	BeforeEach(func() {
		baseDir = filepath.Join(GinkgoT().TempDir(), "receipts")
		var err error
		storage, err = NewLocalStorage(baseDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory", func() {
		Expect(baseDir).To(BeADirectory())
	})

	It("should reuse an existing directory", func() {
		_, err := NewLocalStorage(baseDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("a saved receipt image", func() {
		var savedPath string

		BeforeEach(func() {
			var err error
			savedPath, err = storage.Save("scan-1_lunch.jpg", []byte("jpeg bytes"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should be addressed by its name", func() {
			Expect(savedPath).To(Equal("scan-1_lunch.jpg"))
			Expect(filepath.Join(baseDir, "scan-1_lunch.jpg")).To(BeAnExistingFile())
		})

		It("should read back unchanged", func() {
			data, err := storage.Get(savedPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("jpeg bytes"))
		})

		It("should be gone after Delete", func() {
			Expect(storage.Delete(savedPath)).To(Succeed())
			Expect(filepath.Join(baseDir, savedPath)).NotTo(BeAnExistingFile())

			_, err := storage.Get(savedPath)
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})
	})

	When("the file does not exist", func() {
		It("should fail to read it", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})

		It("should fail to delete it", func() {
			Expect(storage.Delete("missing.jpg")).To(MatchError(ContainSubstring("deleting file")))
		})
	})

	DescribeTable("paths outside the storage directory",
		func(path string) {
			_, saveErr := storage.Save(path, []byte("data"))
			Expect(saveErr).To(MatchError(ContainSubstring("invalid storage path")))

			_, getErr := storage.Get(path)
			Expect(getErr).To(MatchError(ContainSubstring("invalid storage path")))

			Expect(storage.Delete(path)).To(MatchError(ContainSubstring("invalid storage path")))
		},
		Entry("parent directory", "../escape.jpg"),
		Entry("nested parent directory", "a/../../escape.jpg"),
		Entry("absolute path", "/etc/passwd"),
		Entry("empty path", ""),
	)

	It("should not write outside the base directory", func() {
		_, _ = storage.Save("../escape.jpg", []byte("data"))
		_, err := os.Stat(filepath.Join(filepath.Dir(baseDir), "escape.jpg"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
