package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/providers"
	"github.com/jackzampolin/fireform/internal/svcctx"
)

// ModelsResponse lists the models the inference service offers.
type ModelsResponse struct {
	Provider string                `json:"provider"`
	Active   string                `json:"active"`
	Models   []providers.ModelInfo `json:"models"`
}

// ModelsEndpoint handles GET /api/models.
type ModelsEndpoint struct{}

func (e *ModelsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/models", e.handler
}

func (e *ModelsEndpoint) RequiresInit() bool { return true }

func (e *ModelsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusServiceUnavailable, "provider registry not initialized")
		return
	}

	client := registry.Current()
	lister, ok := client.(providers.ModelLister)
	if !ok {
		writeError(w, http.StatusNotImplemented, client.Name()+" cannot list models")
		return
	}

	models, err := lister.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if models == nil {
		models = []providers.ModelInfo{}
	}

	writeJSON(w, http.StatusOK, ModelsResponse{
		Provider: client.Name(),
		Active:   registry.Config().Model,
		Models:   models,
	})
}

func (e *ModelsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models offered by the server's inference service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ModelsResponse
			if err := client.Get(cmd.Context(), "/api/models", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
