package platform

import "strings"

// Kind clasifica el entorno de ejecución del cliente.
type Kind string

const (
	NativeAndroid Kind = "native-android"
	NativeIOS     Kind = "native-ios"
	MobileWeb     Kind = "mobile-web"
	DesktopWeb    Kind = "desktop-web"
)

// IsNative indica si el cliente corre dentro del shell nativo.
func (k Kind) IsNative() bool {
	return k == NativeAndroid || k == NativeIOS
}

// IsMobile indica si el cliente es móvil, nativo o navegador.
func (k Kind) IsMobile() bool {
	return k != DesktopWeb
}

// Detector clasifica el entorno a partir de las señales de la petición.
// Es la única autoridad de detección; ningún otro componente duplica
// la heurística.
type Detector interface {
	Detect(bridgeHeader, userAgent string) Kind
}

// BridgeHeader es la cabecera que inyecta el shell nativo.
const BridgeHeader = "X-Calmspace-Platform"

// HeaderDetector aplica el orden documentado: primero la señal del puente
// nativo, después coincidencia de substrings en el user-agent.
type HeaderDetector struct{}

func NewHeaderDetector() HeaderDetector {
	return HeaderDetector{}
}

func (HeaderDetector) Detect(bridgeHeader, userAgent string) Kind {
	switch strings.ToLower(strings.TrimSpace(bridgeHeader)) {
	case "android":
		return NativeAndroid
	case "ios":
		return NativeIOS
	}

	// Fallback: la misma heurística de user-agent que usaba el guard.
	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "android") {
		return MobileWeb
	}
	if strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod") {
		return MobileWeb
	}
	return DesktopWeb
}
