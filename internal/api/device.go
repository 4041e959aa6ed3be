package api

import (
	"fmt"
	"net/http"

	"github.com/avct/uasurfer"

	"github.com/crisisworks/openreportserve/internal/models"
)

// resolveDevice parses a raw User-Agent string into a DeviceInfo using the
// uasurfer library.
func resolveDevice(uaString string) *models.DeviceInfo {
	if uaString == "" {
		return nil
	}
	u := uasurfer.Parse(uaString)

	var deviceType string
	switch u.DeviceType {
	case uasurfer.DeviceComputer:
		deviceType = "desktop"
	case uasurfer.DevicePhone:
		deviceType = "mobile"
	case uasurfer.DeviceTablet:
		deviceType = "tablet"
	default:
		deviceType = "other"
	}

	v := u.OS.Version
	os := fmt.Sprintf("%s %d.%d.%d", u.OS.Name.String(), v.Major, v.Minor, v.Patch)
	bv := u.Browser.Version
	browser := fmt.Sprintf("%s %d.%d.%d", u.Browser.Name.String(), bv.Major, bv.Minor, bv.Patch)

	return &models.DeviceInfo{
		Platform:   u.OS.Platform.String(),
		OS:         os,
		Browser:    browser,
		DeviceType: deviceType,
		IsBot:      u.IsBot(),
	}
}

// requestMetadata fills the submission metadata from request headers and the
// client IP. Values supplied by the client body win over derived ones.
func (s *Server) requestMetadata(r *http.Request, meta models.Metadata) models.Metadata {
	if meta.Device == nil {
		meta.Device = resolveDevice(r.Header.Get("User-Agent"))
	}
	if meta.Country == "" && s.GeoIP != nil {
		if ip := clientIP(r); ip != nil {
			meta.Country = s.GeoIP.Country(ip)
		}
	}
	return meta
}
