package gpu

import "fmt"

// FormatBytes renders a byte count with a binary unit suffix for log output
func FormatBytes(n int64) string {
	val := float64(n)
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	i := 0
	for (val >= 1024 || val <= -1024) && i < len(units)-1 {
		val /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.2f %s", val, units[i])
}
