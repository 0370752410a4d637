package domain

// Los importes se manejan en paise (unidades menores de INR) de punta a punta.

// PriceTable asocia cada servicio a su precio base en paise.
type PriceTable map[ServiceType]int64

// DefaultPriceTable replica la tabla fija de precios del sitio.
var DefaultPriceTable = PriceTable{
	ServiceSubscription:      150000,
	ServicePayPerSession:     150000,
	ServiceCorporateWellness: 500000,
	ServiceWorkshops:         100000,
	ServiceEbooksCourses:     120000,
}

// DefaultBasePrice aplica cuando el servicio no figura en la tabla.
const DefaultBasePrice int64 = 150000

// BasePriceFor resuelve el precio base de un servicio con fallback documentado.
func (t PriceTable) BasePriceFor(s ServiceType) int64 {
	if price, ok := t[s]; ok {
		return price
	}
	return DefaultBasePrice
}

// PromoTable asocia códigos promocionales a porcentaje de descuento.
type PromoTable map[string]int

// DefaultPromoTable replica los códigos válidos del sitio.
var DefaultPromoTable = PromoTable{
	"WELCOME10":   10,
	"CALM20":      20,
	"FIRSTTIME15": 15,
}

// CheckoutStatus es el estado de la máquina de checkout.
type CheckoutStatus string

const (
	CheckoutReady     CheckoutStatus = "ready"
	CheckoutInFlight  CheckoutStatus = "payment_in_flight"
	CheckoutSucceeded CheckoutStatus = "succeeded"
	CheckoutFailed    CheckoutStatus = "failed"
	CheckoutCancelled CheckoutStatus = "cancelled"
)

// CheckoutState deriva del borrador de reserva más el precio y la promo.
// Invariante: TotalPrice = BasePrice - PromoDiscount, PromoDiscount >= 0.
type CheckoutState struct {
	SessionID     string         `json:"session_id"`
	Draft         BookingDraft   `json:"draft"`
	BasePrice     int64          `json:"base_price"`
	PromoCode     string         `json:"promo_code,omitempty"`
	PromoApplied  bool           `json:"promo_applied"`
	PromoDiscount int64          `json:"promo_discount"`
	TotalPrice    int64          `json:"total_price"`
	OrderID       string         `json:"order_id,omitempty"`
	Status        CheckoutStatus `json:"status"`
}
