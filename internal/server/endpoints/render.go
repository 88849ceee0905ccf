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

// RenderRequest renders a LaTeX template from a transcript.
// Either TemplateID or both Fields and TemplatePath must be set.
type RenderRequest struct {
	Transcript   string   `json:"transcript"`
	TemplateID   string   `json:"template_id,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	TemplatePath string   `json:"template_path,omitempty"`
	OutputName   string   `json:"output_name,omitempty"`
	OutputDir    string   `json:"output_dir,omitempty"`
}

// RenderResponse reports the record and the rendered PDF.
type RenderResponse struct {
	Record     *extract.Record `json:"record" yaml:"record"`
	OutputPath string          `json:"output_path" yaml:"output_path"`
}

// RenderEndpoint handles POST /api/render.
type RenderEndpoint struct{}

func (e *RenderEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/render", e.handler
}

func (e *RenderEndpoint) RequiresInit() bool { return true }

func (e *RenderEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RenderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	svc := svcctx.FillFrom(ctx)
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "fill service not initialized")
		return
	}

	fields, tmplPath := req.Fields, req.TemplatePath
	if req.TemplateID != "" {
		t, store, err := lookupTemplate(ctx, req.TemplateID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if t.LaTeX == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("template %s has no latex", t.ID))
			return
		}
		fields, tmplPath = t.Fields, store.Resolve(t.LaTeX)
	}
	if tmplPath == "" {
		writeError(w, http.StatusBadRequest, "template_path or template_id is required")
		return
	}

	outDir := req.OutputDir
	if outDir == "" {
		if h := svcctx.HomeFrom(ctx); h != nil {
			outDir = h.OutputsPath()
		}
	}

	res, err := svc.Render(ctx, fill.RenderRequest{
		Transcript:   req.Transcript,
		Fields:       fields,
		TemplatePath: tmplPath,
		OutputName:   req.OutputName,
		OutputDir:    outDir,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RenderResponse{Record: res.Record, OutputPath: res.OutputPath})
}

func (e *RenderEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req RenderRequest
	var input string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a LaTeX template on the server from a transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.TemplateID == "" && req.TemplatePath == "" {
				return fmt.Errorf("either --template or --tex is required")
			}
			transcript, err := api.ReadInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			req.Transcript = transcript
			if req.TemplatePath != "" {
				if req.TemplatePath, err = filepath.Abs(req.TemplatePath); err != nil {
					return err
				}
			}

			client := api.NewClient(getServerURL())
			var resp RenderResponse
			if err := client.Post(cmd.Context(), "/api/render", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&req.TemplateID, "template", "t", "", "Stored template ID")
	cmd.Flags().StringArrayVarP(&req.Fields, "field", "f", nil, "Field to extract (repeatable, in order)")
	cmd.Flags().StringVar(&req.TemplatePath, "tex", "", "LaTeX template file")
	cmd.Flags().StringVar(&req.OutputName, "name", "", "Output file name (default: template name with .pdf)")
	cmd.Flags().StringVar(&req.OutputDir, "out-dir", "", "Output directory on the server")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript file (default: stdin)")
	return cmd
}
