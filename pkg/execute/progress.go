package execute

import (
	"io"
	"time"
)

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond // Minimum time between progress reports
	progressReportBytes    = 64 * 1024             // Minimum bytes between reports (64KB)
)

// progressReader wraps an io.Reader to report copied bytes
type progressReader struct {
	reader         io.Reader
	read           int64
	lastReported   int64
	lastReportTime time.Time
	onProgress     func(bytesRead int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)

		// Report after enough bytes or enough time, and always on the final read
		if pr.onProgress != nil {
			if pr.read-pr.lastReported >= progressReportBytes ||
				time.Since(pr.lastReportTime) >= progressReportInterval ||
				err != nil {
				pr.onProgress(pr.read)
				pr.lastReported = pr.read
				pr.lastReportTime = time.Now()
			}
		}
	}
	return n, err
}
