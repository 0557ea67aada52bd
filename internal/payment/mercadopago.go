package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/tenant"
)

const defaultBaseURL = "https://api.mercadopago.com"

// intentExpiry is how long a created intent stays payable.
const intentExpiry = 30 * 24 * time.Hour

// Config is the platform-level gateway configuration. Stores may override the
// access token per tenant; everything else is shared.
type Config struct {
	AccessToken string
	Mode        string // "test" or "production"
	BaseURL     string
	FrontendURL string
	BackendURL  string
}

func (c Config) Production() bool { return c.Mode == "production" }

// MercadoPago implements Gateway against the MercadoPago REST API.
type MercadoPago struct {
	cfg    Config
	client *http.Client
}

func NewMercadoPago(cfg Config) *MercadoPago {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &MercadoPago{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

type preferenceRequest struct {
	Items             []preferenceItem  `json:"items"`
	ExternalReference string            `json:"external_reference"`
	Payer             preferencePayer   `json:"payer"`
	BackURLs          backURLs          `json:"back_urls"`
	AutoReturn        string            `json:"auto_return"`
	NotificationURL   string            `json:"notification_url"`
	StatementDesc     string            `json:"statement_descriptor"`
	Expires           bool              `json:"expires"`
	ExpirationFrom    string            `json:"expiration_date_from"`
	ExpirationTo      string            `json:"expiration_date_to"`
	Metadata          map[string]string `json:"metadata"`
	PaymentMethods    paymentMethods    `json:"payment_methods"`
}

type preferencePayer struct {
	Name    string       `json:"name"`
	Email   string       `json:"email,omitempty"`
	Phone   payerPhone   `json:"phone"`
	Address payerAddress `json:"address"`
}

type payerPhone struct {
	Number string `json:"number"`
}

type payerAddress struct {
	StreetName string `json:"street_name"`
	ZipCode    string `json:"zip_code"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type paymentMethods struct {
	Installments int `json:"installments"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (mp *MercadoPago) CreateIntent(ctx context.Context, o *order.Order, st *tenant.Store) (*Intent, error) {
	if !st.Payment.Enabled {
		return nil, ErrPaymentConfig
	}
	token := mp.cfg.AccessToken
	if st.Payment.AccessToken != "" {
		token = st.Payment.AccessToken
	}
	if token == "" {
		return nil, ErrPaymentConfig
	}

	items := make([]preferenceItem, 0, len(o.Items)+1)
	for _, li := range o.Items {
		title := li.Name
		if li.Variant != "" {
			title = fmt.Sprintf("%s (%s)", li.Name, li.Variant)
		}
		items = append(items, preferenceItem{
			ID:         li.ProductID,
			Title:      title,
			Quantity:   li.Quantity,
			CurrencyID: "ARS",
			UnitPrice:  toUnits(li.UnitPrice),
		})
	}
	if o.ShippingCost > 0 {
		items = append(items, preferenceItem{
			ID:         "shipping",
			Title:      "Shipping",
			Quantity:   1,
			CurrencyID: "ARS",
			UnitPrice:  toUnits(o.ShippingCost),
		})
	}

	now := time.Now()
	req := preferenceRequest{
		Items:             items,
		ExternalReference: o.ExternalReference(),
		Payer: preferencePayer{
			Name:  o.Address.Name,
			Phone: payerPhone{Number: o.Address.Phone},
			Address: payerAddress{
				StreetName: o.Address.Street,
				ZipCode:    o.Address.PostalCode,
			},
		},
		BackURLs: backURLs{
			Success: mp.cfg.FrontendURL + "/order/success",
			Failure: mp.cfg.FrontendURL + "/order/failure",
			Pending: mp.cfg.FrontendURL + "/order/pending",
		},
		AutoReturn:      "approved",
		NotificationURL: mp.cfg.BackendURL + "/payments/webhook",
		StatementDesc:   st.Name,
		Expires:         true,
		ExpirationFrom:  now.Format(time.RFC3339),
		ExpirationTo:    now.Add(intentExpiry).Format(time.RFC3339),
		Metadata: map[string]string{
			"order_id": o.ID,
			"store_id": o.StoreID,
			"user_id":  o.UserID,
		},
		PaymentMethods: paymentMethods{Installments: 12},
	}

	var resp preferenceResponse
	if err := mp.do(ctx, http.MethodPost, "/checkout/preferences", token, req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: preference response missing id", ErrGateway)
	}
	return &Intent{ID: resp.ID, InitPoint: resp.InitPoint, SandboxInitPoint: resp.SandboxInitPoint}, nil
}

// paymentResponse is the provider payload, decoded and validated once here so
// the rest of the system only ever sees the Record shape.
type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	TransactionAmount float64     `json:"transaction_amount"`
	PaymentTypeID     string      `json:"payment_type_id"`
	Installments      int         `json:"installments"`
	ExternalReference string      `json:"external_reference"`
	DateApproved      *time.Time  `json:"date_approved"`
	DateCreated       *time.Time  `json:"date_created"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

func (mp *MercadoPago) FetchPayment(ctx context.Context, paymentID string) (*Record, error) {
	if mp.cfg.AccessToken == "" {
		return nil, ErrPaymentConfig
	}

	var resp paymentResponse
	if err := mp.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, mp.cfg.AccessToken, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID.String() == "" || resp.Status == "" {
		return nil, fmt.Errorf("%w: payment response missing id or status", ErrGateway)
	}

	return &Record{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		Amount:            toCents(resp.TransactionAmount),
		Type:              resp.PaymentTypeID,
		Installments:      resp.Installments,
		ExternalReference: resp.ExternalReference,
		PayerEmail:        resp.Payer.Email,
		ApprovedAt:        resp.DateApproved,
		CreatedAt:         resp.DateCreated,
	}, nil
}

type refundRequest struct {
	Amount float64 `json:"amount,omitempty"`
}

type refundResponse struct {
	ID     json.Number `json:"id"`
	Amount float64     `json:"amount"`
}

func (mp *MercadoPago) Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error) {
	if mp.cfg.AccessToken == "" {
		return nil, ErrPaymentConfig
	}

	var body any
	if amount > 0 {
		body = refundRequest{Amount: toUnits(amount)}
	} else {
		body = struct{}{}
	}

	var resp refundResponse
	if err := mp.do(ctx, http.MethodPost, "/v1/payments/"+paymentID+"/refunds", mp.cfg.AccessToken, body, &resp); err != nil {
		return nil, err
	}
	return &Refund{ID: resp.ID.String(), Amount: toCents(resp.Amount)}, nil
}

func (mp *MercadoPago) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, mp.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := mp.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrGateway, method, path, resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// toCents converts the provider's decimal amounts to cents.
func toCents(units float64) int64 {
	return int64(math.Round(units * 100))
}

func toUnits(cents int64) float64 {
	return float64(cents) / 100
}
