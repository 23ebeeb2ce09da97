package upnp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeNode is a container (children set) or an item (mime set) of a fake
// ContentDirectory.
type fakeNode struct {
	id       string
	title    string
	class    string
	mime     string
	children []*fakeNode
}

func container(id, title string, children ...*fakeNode) *fakeNode {
	return &fakeNode{id: id, title: title, class: "object.container.storageFolder", children: children}
}

func audio(id, title string) *fakeNode {
	return &fakeNode{id: id, title: title, class: "object.item.audioItem.musicTrack", mime: "audio/mpeg"}
}

func video(id, title string) *fakeNode {
	return &fakeNode{id: id, title: title, class: "object.item.videoItem", mime: "video/mp4"}
}

func photo(id, title string) *fakeNode {
	return &fakeNode{id: id, title: title, class: "object.item.imageItem.photo", mime: "image/jpeg"}
}

type browseCall struct {
	ObjectID       string
	StartingIndex  int
	RequestedCount int
}

// fakeContentDirectory serves Browse requests from an in-memory tree.
type fakeContentDirectory struct {
	nodes map[string]*fakeNode

	mu        sync.Mutex
	calls     []browseCall
	failFirst int
}

func newFakeContentDirectory(t *testing.T, root *fakeNode) (*fakeContentDirectory, *httptest.Server) {
	t.Helper()
	f := &fakeContentDirectory{nodes: make(map[string]*fakeNode)}
	var index func(*fakeNode)
	index = func(n *fakeNode) {
		f.nodes[n.id] = n
		for _, c := range n.children {
			index(c)
		}
	}
	index(root)

	srv := httptest.NewServer(http.HandlerFunc(f.ServeHTTP))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeContentDirectory) FailFirst(n int) {
	f.mu.Lock()
	f.failFirst = n
	f.mu.Unlock()
}

func (f *fakeContentDirectory) Calls() []browseCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]browseCall(nil), f.calls...)
}

func (f *fakeContentDirectory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("SOAPAction") != browseAction {
		http.Error(w, "bad SOAPAction", http.StatusBadRequest)
		return
	}

	var env struct {
		Body struct {
			Browse browseCall `xml:"Browse"`
		} `xml:"Body"`
	}
	if err := xml.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call := env.Body.Browse

	f.mu.Lock()
	f.calls = append(f.calls, call)
	fail := f.failFirst > 0
	if fail {
		f.failFirst--
	}
	f.mu.Unlock()

	if fail {
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}

	node, ok := f.nodes[call.ObjectID]
	if !ok {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault>`+
			`<faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail>`+
			`<UPnPError xmlns="urn:schemas-upnp-org:control-1-0"><errorCode>701</errorCode>`+
			`<errorDescription>No such object</errorDescription></UPnPError></detail></s:Fault></s:Body></s:Envelope>`)
		return
	}

	start := call.StartingIndex
	if start > len(node.children) {
		start = len(node.children)
	}
	end := len(node.children)
	if call.RequestedCount > 0 && start+call.RequestedCount < end {
		end = start + call.RequestedCount
	}
	page := node.children[start:end]

	var didl bytes.Buffer
	didl.WriteString(`<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/">`)
	for _, c := range page {
		if c.mime == "" {
			fmt.Fprintf(&didl, `<container id="%s" parentID="%s" childCount="%d" restricted="1"><dc:title>%s</dc:title><upnp:class>%s</upnp:class></container>`,
				c.id, node.id, len(c.children), c.title, c.class)
			continue
		}
		fmt.Fprintf(&didl, `<item id="%s" parentID="%s" restricted="1"><dc:title>%s</dc:title><upnp:class>%s</upnp:class>`+
			`<res protocolInfo="http-get:*:%s:*" size="1024" duration="0:03:25.000">http://media.local/%s.bin</res></item>`,
			c.id, node.id, c.title, c.class, c.mime, c.id)
	}
	didl.WriteString(`</DIDL-Lite>`)

	var result bytes.Buffer
	_ = xml.EscapeText(&result, didl.Bytes())

	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	fmt.Fprintf(w, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`+
		`<u:BrowseResponse xmlns:u="%s"><Result>%s</Result><NumberReturned>%d</NumberReturned>`+
		`<TotalMatches>%d</TotalMatches><UpdateID>1</UpdateID></u:BrowseResponse></s:Body></s:Envelope>`,
		ContentDirectoryURN, result.String(), len(page), len(node.children))
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func testServer(url string) Server {
	return Server{Name: "Fake Server", ContentDirectoryURL: url + "/ctl/ContentDir"}
}
