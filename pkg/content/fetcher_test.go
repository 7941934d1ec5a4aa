package content

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fakeResponse(status int, body io.Reader) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(body),
	}
}

var _ = Describe("LINEFetcher", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("returns the accumulated content", func() {
		var requested string
		f := &LINEFetcher{get: func(_ context.Context, id string) (*http.Response, error) {
			requested = id
			return fakeResponse(http.StatusOK, strings.NewReader("jpeg-bytes")), nil
		}}

		data, err := f.Fetch(ctx, "msg-1")

		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("jpeg-bytes"))
		Expect(requested).To(Equal("msg-1"))
	})

	It("rejects an empty message id without calling the platform", func() {
		called := false
		f := &LINEFetcher{get: func(context.Context, string) (*http.Response, error) {
			called = true
			return nil, nil
		}}

		_, err := f.Fetch(ctx, "")

		Expect(err).To(MatchError(ErrEmptyMessageID))
		Expect(called).To(BeFalse())
	})

	It("wraps platform client errors", func() {
		clientErr := errors.New("dial tcp: i/o timeout")
		f := &LINEFetcher{get: func(context.Context, string) (*http.Response, error) {
			return nil, clientErr
		}}

		_, err := f.Fetch(ctx, "msg-1")

		Expect(err).To(MatchError(clientErr))
		Expect(err.Error()).To(ContainSubstring("msg-1"))
	})

	It("fails on non-2xx responses", func() {
		f := &LINEFetcher{get: func(context.Context, string) (*http.Response, error) {
			return fakeResponse(http.StatusNotFound, strings.NewReader(`{"message":"Not found"}`)), nil
		}}

		data, err := f.Fetch(ctx, "expired")

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("404"))
		Expect(data).To(BeNil())
	})

	It("fails when the body breaks mid-stream", func() {
		body := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(io.ErrUnexpectedEOF))
		f := &LINEFetcher{get: func(context.Context, string) (*http.Response, error) {
			return fakeResponse(http.StatusOK, body), nil
		}}

		data, err := f.Fetch(ctx, "msg-1")

		Expect(errors.Is(err, io.ErrUnexpectedEOF)).To(BeTrue())
		Expect(data).To(BeNil())
	})

	It("enforces the size limit", func() {
		f := &LINEFetcher{
			get: func(context.Context, string) (*http.Response, error) {
				return fakeResponse(http.StatusOK, strings.NewReader("0123456789")), nil
			},
			maxBytes: 4,
		}

		_, err := f.Fetch(ctx, "msg-1")

		Expect(err).To(MatchError(ErrTooLarge))
	})
})
