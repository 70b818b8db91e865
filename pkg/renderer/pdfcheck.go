package renderer

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

//nolint:gochecknoglobals // pdfcpu keeps its config dir in process state
var pdfcpuInit sync.Once

func pdfcpuConfig() (conf *model.Configuration) {
	pdfcpuInit.Do(api.DisableConfigDir)
	conf = model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func validatePDF(data []byte) (err error) {
	err = api.Validate(bytes.NewReader(data), pdfcpuConfig())
	if err != nil {
		err = errors.Wrap(err, "generated PDF failed validation")
		return err
	}
	return err
}

// PageCount returns the number of pages in a PDF document.
func PageCount(data []byte) (pages int, err error) {
	pages, err = api.PageCount(bytes.NewReader(data), pdfcpuConfig())
	if err != nil {
		err = errors.Wrap(err, "failed to count PDF pages")
		return pages, err
	}
	return pages, err
}
