package sheets

import (
	"context"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

// ReportWriter is the outbound port for report exports. Implementations
// append one snapshot of the report per call; nothing is overwritten.
type ReportWriter interface {
	ExportReport(ctx context.Context, model *core.ReportModel) (ref string, err error)
}
