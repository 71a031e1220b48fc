package api

import (
	"context"
	"net/http"

	"github.com/okian/festboard/internal/domain/model"
)

// CertificateDependencies defines the interface for certificate operations.
type CertificateDependencies interface {
	Certificate(ctx context.Context, programmeID, resultID string) (model.Certificate, error)
}

// CertificateHandler handles certificate requests.
type CertificateHandler struct {
	deps CertificateDependencies
}

// NewCertificateHandler creates a new certificate handler.
func NewCertificateHandler(deps CertificateDependencies) *CertificateHandler {
	return &CertificateHandler{deps: deps}
}

// HandleGetCertificate handles GET /programmes/{id}/results/{resultId}/certificate.
func (h *CertificateHandler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.deps.Certificate(r.Context(), r.PathValue("id"), r.PathValue("resultId"))
	respond(w, "certificate", cert, err)
}

// HandleDownloadCertificate redirects to the certificate document once the
// result is known to exist.
func (h *CertificateHandler) HandleDownloadCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.deps.Certificate(r.Context(), r.PathValue("id"), r.PathValue("resultId"))
	if err != nil {
		respond(w, "certificate_download", cert, err)
		return
	}
	http.Redirect(w, r, cert.DownloadURL, http.StatusFound)
}
