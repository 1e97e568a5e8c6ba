package purchasing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/frotadesk/frotadesk/internal/authz"
	"github.com/frotadesk/frotadesk/internal/shared"
)

type fakeInvoiceStore struct {
	saved   []string
	removed []string
}

func (f *fakeInvoiceStore) SavePDF(orderID int64, src io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, src); err != nil {
		return "", err
	}
	name := fmt.Sprintf("nfs_pc%d_%d.pdf", orderID, len(f.saved)+1)
	f.saved = append(f.saved, name)
	return name, nil
}

func (f *fakeInvoiceStore) Remove(name string) error {
	f.removed = append(f.removed, name)
	return nil
}

func newHandlerServer(t *testing.T, svc *Service, store *fakeInvoiceStore) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, store, authz.Middleware{})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "test-session"}
			sess.SetUser("2", "manager")
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/purchasing", h.MountRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func invoiceForm(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("invoice_pdf", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 stub"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestFinalizeUploadStoresPDF(t *testing.T) {
	repo := newMemoryPurchasingRepo()
	svc := newTestService(repo)
	orderID := approvedOrder(t, svc)
	store := &fakeInvoiceStore{}
	srv := newHandlerServer(t, svc, store)

	body, contentType := invoiceForm(t, "invoice.pdf")
	resp, err := http.Post(fmt.Sprintf("%s/purchasing/orders/%d/finalize", srv.URL, orderID), contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, store.saved, 1)
	require.Empty(t, store.removed)

	order, err := svc.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Equal(t, OrderFinalized, order.Status)
	require.Equal(t, store.saved[0], order.InvoicePDFPath)
}

func TestFinalizeRejectsNonPDFUpload(t *testing.T) {
	repo := newMemoryPurchasingRepo()
	svc := newTestService(repo)
	orderID := approvedOrder(t, svc)
	store := &fakeInvoiceStore{}
	srv := newHandlerServer(t, svc, store)

	body, contentType := invoiceForm(t, "invoice.txt")
	resp, err := http.Post(fmt.Sprintf("%s/purchasing/orders/%d/finalize", srv.URL, orderID), contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nothing was written, so there is nothing to clean up.
	require.Empty(t, store.saved)
	require.Empty(t, store.removed)
}

func TestFinalizeFailureDiscardsUploadedPDF(t *testing.T) {
	repo := newMemoryPurchasingRepo()
	svc := newTestService(repo)
	orderID := approvedOrder(t, svc)
	store := &fakeInvoiceStore{}
	srv := newHandlerServer(t, svc, store)

	url := fmt.Sprintf("%s/purchasing/orders/%d/finalize", srv.URL, orderID)
	resp, err := http.Post(url, "application/json",
		strings.NewReader(fmt.Sprintf(`{"invoice_key":%q}`, strOfLen(44))))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, contentType := invoiceForm(t, "invoice.pdf")
	resp, err = http.Post(url, contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	require.Len(t, store.saved, 1)
	require.Equal(t, store.saved, store.removed)
}
