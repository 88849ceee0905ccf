package endpoints

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/extract"
	"github.com/jackzampolin/fireform/internal/fill"
	"github.com/jackzampolin/fireform/internal/svcctx"
)

// FillRequest fills a PDF form from a transcript. Either TemplateID or both
// Fields and PDFPath must be set. Paths are on the server's filesystem.
type FillRequest struct {
	Transcript string   `json:"transcript"`
	TemplateID string   `json:"template_id,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	PDFPath    string   `json:"pdf_path,omitempty"`
	OutputPath string   `json:"output_path,omitempty"`
}

// FillResponse reports the record and where the filled form was written.
type FillResponse struct {
	Record     *extract.Record `json:"record" yaml:"record"`
	OutputPath string          `json:"output_path" yaml:"output_path"`
}

// FillEndpoint handles POST /api/fill.
type FillEndpoint struct{}

func (e *FillEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/fill", e.handler
}

func (e *FillEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Fill a PDF form
//	@Description	Extracts the fields and writes them onto the form's widgets in reading order
//	@Tags			fill
//	@Accept			json
//	@Produce		json
//	@Param			request	body		FillRequest	true	"Fill request"
//	@Success		200		{object}	FillResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/fill [post]
func (e *FillEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FillRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	svc := svcctx.FillFrom(ctx)
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "fill service not initialized")
		return
	}

	fields, pdfPath := req.Fields, req.PDFPath
	if req.TemplateID != "" {
		t, store, err := lookupTemplate(ctx, req.TemplateID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if t.PDF == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("template %s has no pdf", t.ID))
			return
		}
		fields, pdfPath = t.Fields, store.Resolve(t.PDF)
	}
	if pdfPath == "" {
		writeError(w, http.StatusBadRequest, "pdf_path or template_id is required")
		return
	}

	output := req.OutputPath
	if output == "" {
		if h := svcctx.HomeFrom(ctx); h != nil {
			output = h.OutputPath(filepath.Base(fill.DefaultOutputPath(pdfPath)))
		}
	}

	res, err := svc.FillPDF(ctx, fill.Request{
		Transcript: req.Transcript,
		Fields:     fields,
		PDFPath:    pdfPath,
		OutputPath: output,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FillResponse{Record: res.Record, OutputPath: res.OutputPath})
}

func (e *FillEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req FillRequest
	var input string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a PDF form on the server from a transcript",
		Long: `Fill asks the server to extract the fields and write them into a PDF form.

Use --template for a stored template, or --pdf with repeated --field flags.
The transcript is read from --input, or from stdin when --input is omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.TemplateID == "" && req.PDFPath == "" {
				return fmt.Errorf("either --template or --pdf is required")
			}
			transcript, err := api.ReadInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			req.Transcript = transcript
			if req.PDFPath != "" {
				if req.PDFPath, err = filepath.Abs(req.PDFPath); err != nil {
					return err
				}
			}

			client := api.NewClient(getServerURL())
			var resp FillResponse
			if err := client.Post(cmd.Context(), "/api/fill", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&req.TemplateID, "template", "t", "", "Stored template ID")
	cmd.Flags().StringArrayVarP(&req.Fields, "field", "f", nil, "Field to extract (repeatable, in order)")
	cmd.Flags().StringVar(&req.PDFPath, "pdf", "", "Fillable PDF form")
	cmd.Flags().StringVar(&req.OutputPath, "out", "", "Output path on the server")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript file (default: stdin)")
	return cmd
}
