// Пакет version хранит сведения о сборке бинаря. Значения заполняются
// при сборке через -ldflags -X.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build — сведения об одной сборке.
type Build struct {
	Version string
	Commit  string
	Date    string
}

// Current возвращает сведения о текущей сборке.
func Current() Build {
	return Build{Version: version, Commit: commit, Date: date}
}

// String форматирует сведения о сборке одной строкой для логов и /healthz.
func (b Build) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}

// String возвращает строку текущей сборки.
func String() string {
	return Current().String()
}
