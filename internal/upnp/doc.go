/*
Package upnp discovers UPnP/DLNA media servers on the local network and
browses their ContentDirectory service.

Discovery sends an SSDP M-SEARCH for MediaServer devices, fetches each
responder's device description and keeps the devices that expose a
ContentDirectory control URL:

	servers, err := upnp.Discover(ctx, upnp.DiscoveryConfig{Timeout: 10 * time.Second})

Browsing is done through a Client, which paginates Browse actions, rate
limits requests to the server and retries transport failures:

	client := upnp.NewClient(upnp.ClientOptions{RateLimit: 20})
	items, err := client.BrowseMedia(ctx, server, "0", 5)

Manager holds the discovered servers and the one the service is connected
to. It is safe for concurrent use.
*/
package upnp
