package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		url  string
		want Platform
	}{
		{"https://www.bazaraki.com/adv/123_mercedes-actros-2018/", Bazaraki},
		{"HTTPS://WWW.BAZARAKI.COM/adv/1/", Bazaraki},
		{"https://www.facebook.com/marketplace/item/987654321/", Facebook},
		{"https://www.autotrader.co.uk/car-details/202401010000001", AutoTrader},
		{"https://www.autotrader.com/cars-for-sale/vehicle/1", AutoTrader},
		{"https://www.facebook.com/groups/trucks", Unsupported},
		{"https://www.ebay.co.uk/itm/1", Unsupported},
		{"", Unsupported},
	}

	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.url))
		})
	}
}

func TestDetectFirstMatchWins(t *testing.T) {
	// Contains both fragments; bazaraki is checked first.
	url := "https://www.bazaraki.com/redirect?to=https://www.autotrader.co.uk/x"
	assert.Equal(t, Bazaraki, Detect(url))
}

func TestSupportedAndBaseURL(t *testing.T) {
	assert.Equal(t, []Platform{Bazaraki, Facebook, AutoTrader}, Supported())
	assert.Len(t, DisplayNames(), 3)
	assert.Equal(t, "https://www.bazaraki.com", BaseURL(Bazaraki))
	assert.Equal(t, "", BaseURL(Unsupported))
	assert.True(t, AutoTrader.UsesBrowser())
	assert.False(t, Facebook.UsesBrowser())
}
