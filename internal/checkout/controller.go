package checkout

import (
	"context"
	"errors"
	"net/http"

	"quickorder/internal/httpx"
	"quickorder/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	proofField = "paymentProof"
	// Form values and the proof header are kept in memory up to this size.
	maxMemory = 1 << 20
)

type CheckoutService interface {
	Start(ctx context.Context, sess session.Session) (*Handoff, error)
	Place(ctx context.Context, sess session.Session, req PlaceRequest) (*Result, error)
}

type Controller struct {
	service CheckoutService
	logger  *zap.Logger
}

func NewController(service CheckoutService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) Start(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	handoff, err := c.service.Start(r.Context(), s)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, handoff)
}

// PlaceOrder accepts a multipart form with the delivery details and an
// optional paymentProof file. A urlencoded form is accepted when no proof is
// needed.
func (c *Controller) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxProofSize+maxMemory)
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteValidationError(w, logger, "File size must be less than 10MB")
			return
		}
		httpx.WriteValidationError(w, logger, "invalid form body")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := PlaceRequest{
		PaymentMethod:       r.FormValue("paymentMethod"),
		DeliveryAddress:     r.FormValue("deliveryAddress"),
		ContactNumber:       r.FormValue("contactNumber"),
		SpecialInstructions: r.FormValue("specialInstructions"),
	}

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File[proofField]; len(files) > 0 {
			fh := files[0]
			req.Proof = &Proof{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
			}
			if req.Proof.ContentType == "" || req.Proof.ContentType == "application/octet-stream" {
				req.Proof.ContentType = sniffContentType(fh)
			}
		}
	}

	result, err := c.service.Place(r.Context(), s, req)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusCreated, result)
}

func (c *Controller) begin(r *http.Request) (session.Session, *zap.Logger) {
	s := session.FromContext(r.Context())
	return s, c.logger.With(
		zap.String("traceId", uuid.New().String()),
		zap.String("clientId", s.ClientID),
	)
}
