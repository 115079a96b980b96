package constants

// Icon glyphs for use with icon fonts (Material Design Icons).
// These Unicode code points render as icons when used with the theme's icon font.
const (
	Start     = "\U000F040A" // Play/start button icon
	Select    = "\uEACC"     // Select/menu button icon
	LeftRight = "\U000F0E73" // Horizontal arrow indicator

	Back     = "\U000F004D" // Arrow pointing left
	Forward  = "\U000F0054" // Arrow pointing right
	Home     = "\U000F02DC" // House
	Settings = "\U000F0493" // Cog
	Close    = "\U000F0156" // X mark
	Menu     = "\U000F035C" // Three horizontal bars

	WiFi = "\uF1EB" // WiFi signal icon

	CloudRefresh  = "\U000F052A" // Cloud with refresh arrows
	CloudDownload = "\U000F0162" // Cloud with download arrow
	CloudUpload   = "\U000F0167" // Cloud with upload arrow
	CloudCheck    = "\U000F0160" // Cloud with checkmark
	CloudAlert    = "\U000F09E0" // Cloud with warning

	Download = "\U000F01DA" // Download arrow icon
	Update   = "\U000F06B0" // Update/sync icon
)

// IconKeys maps the symbolic icon keys understood by the resource provider
// to their glyphs.
var IconKeys = map[string]string{
	"icon.start":          Start,
	"icon.select":         Select,
	"icon.left_right":     LeftRight,
	"icon.back":           Back,
	"icon.forward":        Forward,
	"icon.home":           Home,
	"icon.settings":       Settings,
	"icon.close":          Close,
	"icon.menu":           Menu,
	"icon.wifi":           WiFi,
	"icon.cloud_refresh":  CloudRefresh,
	"icon.cloud_download": CloudDownload,
	"icon.cloud_upload":   CloudUpload,
	"icon.cloud_check":    CloudCheck,
	"icon.cloud_alert":    CloudAlert,
	"icon.download":       Download,
	"icon.update":         Update,
}
