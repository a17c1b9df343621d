package pdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Info is the structural summary pdfcpu reports for a file.
type Info struct {
	Pages     int    `json:"pages"`
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
}

// Probe reads the document structure with relaxed validation. It does not
// decrypt, so encrypted files report Encrypted without failing.
func Probe(path string) (info *Info, err error) {
	disableConfigDir.Do(api.DisableConfigDir)

	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = readError(path, "probe", fmt.Errorf("pdfcpu panic: %v", r))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, readError(path, "probe", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, readError(path, "probe", fmt.Errorf("failed to read PDF context: %w", err))
	}

	info = &Info{Encrypted: ctx.Encrypt != nil}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}

	if err := ctx.EnsurePageCount(); err != nil {
		// encrypted page trees cannot be walked without the key
		if info.Encrypted {
			return info, nil
		}
		return nil, readError(path, "probe", fmt.Errorf("failed to get page count: %w", err))
	}
	info.Pages = ctx.PageCount

	return info, nil
}
