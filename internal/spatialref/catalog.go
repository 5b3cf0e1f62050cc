package spatialref

import "fmt"

const (
	WKIDWGS84       = 4326
	WKIDWebMercator = 3857
)

var fixed = map[int]string{
	4326:   "+proj=longlat +datum=WGS84 +no_defs",
	4269:   "+proj=longlat +datum=NAD83 +no_defs",
	3857:   webMercator,
	102100: webMercator,
	900913: webMercator,
	3395:   "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	5070:   "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
	102003: "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=37.5 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
	102004: "+proj=lcc +lat_1=33 +lat_2=45 +lat_0=39 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
}

const webMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// CatalogDefinition returns the built-in proj4 definition for wkid.
func CatalogDefinition(wkid int) (string, bool) {
	if def, ok := fixed[wkid]; ok {
		return def, true
	}
	switch {
	case wkid >= 32601 && wkid <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", wkid-32600), true
	case wkid >= 32701 && wkid <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", wkid-32700), true
	case wkid >= 26901 && wkid <= 26923:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=NAD83 +units=m +no_defs", wkid-26900), true
	}
	return "", false
}
