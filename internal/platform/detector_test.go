package platform

import "testing"

func TestDetectBridgeHeaderWins(t *testing.T) {
	d := NewHeaderDetector()

	kind := d.Detect("android", "Mozilla/5.0 (Macintosh; Intel Mac OS X)")
	if kind != NativeAndroid {
		t.Fatalf("expected native-android, got %s", kind)
	}
	kind = d.Detect("IOS", "")
	if kind != NativeIOS {
		t.Fatalf("expected native-ios, got %s", kind)
	}
}

func TestDetectUserAgentFallback(t *testing.T) {
	d := NewHeaderDetector()

	cases := []struct {
		ua   string
		want Kind
	}{
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8)", MobileWeb},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)", MobileWeb},
		{"Mozilla/5.0 (iPad; CPU OS 16_0)", MobileWeb},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)", DesktopWeb},
		{"", DesktopWeb},
	}
	for _, tc := range cases {
		if got := d.Detect("", tc.ua); got != tc.want {
			t.Fatalf("ua %q: expected %s, got %s", tc.ua, tc.want, got)
		}
	}
}

func TestKindHelpers(t *testing.T) {
	if !NativeAndroid.IsNative() || !NativeIOS.IsNative() {
		t.Fatal("native kinds must report IsNative")
	}
	if MobileWeb.IsNative() {
		t.Fatal("mobile web is not native")
	}
	if !MobileWeb.IsMobile() || !NativeAndroid.IsMobile() {
		t.Fatal("mobile kinds must report IsMobile")
	}
	if DesktopWeb.IsMobile() {
		t.Fatal("desktop web is not mobile")
	}
}
