package shared

// CollectPath is the single route served by ic-server.
const CollectPath = "/infoCollect"

// CollectResponse is the envelope returned for every request on CollectPath.
// Data is set (possibly to a null Value) only on success; Error only on failure.
type CollectResponse struct {
	Success bool   `json:"success"`
	Data    *Value `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(data Value) CollectResponse {
	return CollectResponse{Success: true, Data: &data}
}

func Fail(msg string) CollectResponse {
	if msg == "" {
		msg = "bad request"
	}
	return CollectResponse{Success: false, Error: msg}
}

// Report field names, matching what the mobile collector uploads.
const (
	FieldHostname     = "hostname"
	FieldOS           = "os"
	FieldArch         = "arch"
	FieldLanIPs       = "lanIps"
	FieldGatewayIP    = "gateWayIp"
	FieldWanIPInfo    = "wanIpInfo"
	FieldRouterTitle  = "routerWebTitle"
	FieldRouterHTML   = "routerWebContent"
	FieldLocationDesc = "routerLocationDesc"
	FieldInventory    = "inventory"
	FieldTags         = "tags"
)
