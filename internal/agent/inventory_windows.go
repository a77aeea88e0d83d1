package agent

import (
	"bytes"
	"context"
	"os/exec"

	"infocollect/internal/shared"
)

// collectInventory asks PowerShell for OS, CPU, memory and adapter facts.
func collectInventory(ctx context.Context) (shared.Value, error) {
	script := `
$os = Get-CimInstance Win32_OperatingSystem
$cpu = Get-CimInstance Win32_Processor | Select-Object -First 1
$nics = Get-NetAdapter -Physical -ErrorAction SilentlyContinue | Where-Object {$_.Status -eq "Up"} | ForEach-Object {
  [pscustomobject]@{
    name = $_.Name
    mac = $_.MacAddress
    link_speed = $_.LinkSpeed
  }
}
$gw = Get-NetRoute -DestinationPrefix "0.0.0.0/0" -ErrorAction SilentlyContinue | Select-Object -First 1 -ExpandProperty NextHop

[pscustomobject]@{
  os = @{
    caption = $os.Caption
    version = $os.Version
  }
  cpu = @{
    name = $cpu.Name
    logical = $cpu.NumberOfLogicalProcessors
  }
  memory_total_bytes = [int64]$os.TotalVisibleMemorySize * 1024
  gateway_ip = $gw
  adapters = @($nics)
} | ConvertTo-Json -Depth 4 -Compress
`

	cmd := exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return shared.Value{}, err
	}
	return shared.ParseValue(out.Bytes())
}
