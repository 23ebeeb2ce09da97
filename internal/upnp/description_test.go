package upnp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fritzDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
    <friendlyName>FRITZ!Box 7590 Mediaserver</friendlyName>
    <manufacturer>AVM Berlin</manufacturer>
    <modelName>FRITZ!Box 7590</modelName>
    <UDN>uuid:fa095ecc-e13e-40e7-8e6c-3425a5c0a1b2</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:ConnectionManager:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:ConnectionManager</serviceId>
        <controlURL>/ctl/ConnectionMgr</controlURL>
      </service>
      <service>
        <serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:ContentDirectory</serviceId>
        <controlURL>/ctl/ContentDir</controlURL>
      </service>
    </serviceList>
  </device>
</root>`

func TestParseDescription(t *testing.T) {
	t.Parallel()

	const location = "http://192.168.178.1:49000/MediaServerDevDesc.xml"

	tests := []struct {
		name string
		doc  string
		want *Server
	}{
		{
			name: "media server with relative control URL",
			doc:  fritzDescription,
			want: &Server{
				Name:                "FRITZ!Box 7590 Mediaserver",
				UDN:                 "uuid:fa095ecc-e13e-40e7-8e6c-3425a5c0a1b2",
				DeviceType:          MediaServerType,
				Manufacturer:        "AVM Berlin",
				ModelName:           "FRITZ!Box 7590",
				Location:            location,
				ContentDirectoryURL: "http://192.168.178.1:49000/ctl/ContentDir",
			},
		},
		{
			name: "URLBase overrides location",
			doc: strings.Replace(fritzDescription, "<specVersion>",
				"<URLBase>http://10.0.0.5:8200/</URLBase><specVersion>", 1),
			want: &Server{
				Name:                "FRITZ!Box 7590 Mediaserver",
				UDN:                 "uuid:fa095ecc-e13e-40e7-8e6c-3425a5c0a1b2",
				DeviceType:          MediaServerType,
				Manufacturer:        "AVM Berlin",
				ModelName:           "FRITZ!Box 7590",
				Location:            location,
				ContentDirectoryURL: "http://10.0.0.5:8200/ctl/ContentDir",
			},
		},
		{
			name: "absolute control URL",
			doc: `<root><device><deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
				<friendlyName>MiniDLNA</friendlyName>
				<serviceList><service><serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
				<controlURL>http://10.0.0.9:8200/ctl/ContentDir</controlURL></service></serviceList></device></root>`,
			want: &Server{
				Name:                "MiniDLNA",
				DeviceType:          MediaServerType,
				Location:            location,
				ContentDirectoryURL: "http://10.0.0.9:8200/ctl/ContentDir",
			},
		},
		{
			name: "embedded media server",
			doc: `<root><device><deviceType>urn:schemas-upnp-org:device:InternetGatewayDevice:1</deviceType>
				<friendlyName>Router</friendlyName>
				<deviceList><device><deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
				<friendlyName>Embedded</friendlyName>
				<serviceList><service><serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
				<controlURL>cd/control</controlURL></service></serviceList></device></deviceList></device></root>`,
			want: &Server{
				Name:                "Embedded",
				DeviceType:          MediaServerType,
				Location:            location,
				ContentDirectoryURL: "http://192.168.178.1:49000/cd/control",
			},
		},
		{
			name: "missing friendly name",
			doc: `<root><device><deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
				<serviceList><service><serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
				<controlURL>/cd</controlURL></service></serviceList></device></root>`,
			want: &Server{
				Name:                "Unknown Device",
				DeviceType:          MediaServerType,
				Location:            location,
				ContentDirectoryURL: "http://192.168.178.1:49000/cd",
			},
		},
		{
			name: "not a media server",
			doc: `<root><device><deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
				<serviceList><service><serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
				<controlURL>/cd</controlURL></service></serviceList></device></root>`,
		},
		{
			name: "no ContentDirectory",
			doc: `<root><device><deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
				<serviceList><service><serviceType>urn:schemas-upnp-org:service:ConnectionManager:1</serviceType>
				<controlURL>/cm</controlURL></service></serviceList></device></root>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDescription(strings.NewReader(tt.doc), location)
			if err != nil {
				t.Fatalf("parseDescription() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseDescription() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDescriptionLatin1(t *testing.T) {
	t.Parallel()

	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<root><device><deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>" +
		"<friendlyName>M\xfcllers NAS</friendlyName>" +
		"<serviceList><service><serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>" +
		"<controlURL>/cd</controlURL></service></serviceList></device></root>"

	got, err := parseDescription(strings.NewReader(doc), "http://nas:8200/desc.xml")
	if err != nil {
		t.Fatalf("parseDescription() error = %v", err)
	}
	if got == nil || got.Name != "Müllers NAS" {
		t.Errorf("parseDescription() = %+v, want name %q", got, "Müllers NAS")
	}
}

func TestParseDescriptionMalformed(t *testing.T) {
	t.Parallel()

	if _, err := parseDescription(strings.NewReader("<root><device>"), "http://x/"); err == nil {
		t.Error("parseDescription() error = nil, want error for malformed XML")
	}
}
