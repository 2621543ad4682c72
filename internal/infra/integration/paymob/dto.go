package paymob

const placeholderPhone = "01000000000"

type authRequest struct {
	APIKey string `json:"api_key"`
}

type authResponse struct {
	Token string `json:"token"`
}

type shippingData struct {
	ExtraDescription string `json:"extra_description"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phone_number"`
}

type orderRequest struct {
	AuthToken      string       `json:"auth_token"`
	DeliveryNeeded string       `json:"delivery_needed"`
	AmountCents    int          `json:"amount_cents"`
	Currency       string       `json:"currency"`
	ShippingData   shippingData `json:"shipping_data"`
}

type orderResponse struct {
	ID int64 `json:"id"`
}

// billingData fields are all mandatory on Paymob's side even when unknown.
type billingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Currency    string `json:"currency"`
	Street      string `json:"street"`
	Building    string `json:"building"`
	Floor       string `json:"floor"`
	Apartment   string `json:"apartment"`
	City        string `json:"city"`
	Country     string `json:"country"`
	State       string `json:"state"`
}

func newBillingData(email, currency string) billingData {
	return billingData{
		FirstName:   "Leadflow",
		LastName:    "User",
		Email:       email,
		PhoneNumber: placeholderPhone,
		Currency:    currency,
		Street:      "NA",
		Building:    "NA",
		Floor:       "NA",
		Apartment:   "NA",
		City:        "Cairo",
		Country:     "EG",
		State:       "Cairo",
	}
}

type paymentKeyRequest struct {
	AuthToken     string      `json:"auth_token"`
	AmountCents   int         `json:"amount_cents"`
	Expiration    int         `json:"expiration"`
	OrderID       int64       `json:"order_id"`
	BillingData   billingData `json:"billing_data"`
	Currency      string      `json:"currency"`
	IntegrationID int         `json:"integration_id"`
}

type paymentKeyResponse struct {
	Token string `json:"token"`
}
