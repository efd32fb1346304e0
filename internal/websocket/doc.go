// Package websocket serves the dashboard's session channel.
//
// A browser opens GET /ws and sends filter selections:
//
//	{"type":"filter","id":"1","filter":{"view_type":"month","selected_month":"December 2024"}}
//
// and receives the computed view:
//
//	{"type":"view","id":"1","data":{...}}
//
// An "options" request answers with an "option_set" message. Requests on
// one connection are handled in order, one at a time. When the feed is
// reloaded the Hub broadcasts a "reload" message and clients re-send
// their filter.
package websocket
