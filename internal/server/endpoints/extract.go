package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/extract"
	"github.com/jackzampolin/fireform/internal/svcctx"
)

// ExtractRequest asks for the named fields to be pulled out of a transcript.
// Fields come from the request or from a stored template.
type ExtractRequest struct {
	Transcript string   `json:"transcript"`
	Fields     []string `json:"fields,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
}

// ExtractResponse holds the record in field order.
type ExtractResponse struct {
	Record *extract.Record `json:"record" yaml:"record"`
}

// ExtractEndpoint handles POST /api/extract.
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract fields
//	@Description	Runs one model call per field, in order, and returns the record
//	@Tags			extract
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ExtractRequest	true	"Transcript and fields"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	svc := svcctx.FillFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "fill service not initialized")
		return
	}

	fields := req.Fields
	if req.TemplateID != "" {
		t, _, err := lookupTemplate(r.Context(), req.TemplateID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		fields = t.Fields
	}

	record, err := svc.Extract(r.Context(), req.Transcript, fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{Record: record})
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		fields     []string
		templateID string
		input      string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract fields from a transcript",
		Long: `Extract sends a transcript to the server and prints the extracted record.

The transcript is read from --input, or from stdin when --input is omitted.
Fields are given with repeated --field flags or taken from a stored template.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fields) == 0 && templateID == "" {
				return fmt.Errorf("either --field or --template is required")
			}
			transcript, err := api.ReadInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.Post(cmd.Context(), "/api/extract", ExtractRequest{
				Transcript: transcript,
				Fields:     fields,
				TemplateID: templateID,
			}, &resp); err != nil {
				return err
			}
			return api.Output(resp.Record)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field to extract (repeatable, in order)")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Stored template ID supplying the fields")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript file (default: stdin)")
	return cmd
}
