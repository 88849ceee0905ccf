package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/svcctx"
	"github.com/jackzampolin/fireform/internal/templates"
)

// ListTemplatesResponse is the response for GET /api/templates.
type ListTemplatesResponse struct {
	Templates []*templates.Template `json:"templates"`
}

// templatesCommand nests sub under a "templates" parent; the api registry
// merges the parents of all template endpoints.
func templatesCommand(sub *cobra.Command) *cobra.Command {
	parent := &cobra.Command{
		Use:   "templates",
		Short: "Manage stored form templates",
	}
	parent.AddCommand(sub)
	return parent
}

func storeOrUnavailable(w http.ResponseWriter, r *http.Request) *templates.Store {
	store := svcctx.TemplatesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not initialized")
	}
	return store
}

// ListTemplatesEndpoint handles GET /api/templates.
type ListTemplatesEndpoint struct{}

func (e *ListTemplatesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates", e.handler
}

func (e *ListTemplatesEndpoint) RequiresInit() bool { return false }

func (e *ListTemplatesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := storeOrUnavailable(w, r)
	if store == nil {
		return
	}
	list, err := store.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*templates.Template{}
	}
	writeJSON(w, http.StatusOK, ListTemplatesResponse{Templates: list})
}

func (e *ListTemplatesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return templatesCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListTemplatesResponse
			if err := client.Get(cmd.Context(), "/api/templates", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	})
}

// GetTemplateEndpoint handles GET /api/templates/{id}.
type GetTemplateEndpoint struct{}

func (e *GetTemplateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates/{id}", e.handler
}

func (e *GetTemplateEndpoint) RequiresInit() bool { return false }

func (e *GetTemplateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := storeOrUnavailable(w, r)
	if store == nil {
		return
	}
	t, err := store.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (e *GetTemplateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return templatesCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var t templates.Template
			if err := client.Get(cmd.Context(), "/api/templates/"+args[0], &t); err != nil {
				return err
			}
			return api.Output(t)
		},
	})
}

// SaveTemplateEndpoint handles POST /api/templates/{id}.
// The path ID wins over any ID in the body. Saving an existing ID replaces
// it and keeps its creation time.
type SaveTemplateEndpoint struct{}

func (e *SaveTemplateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/templates/{id}", e.handler
}

func (e *SaveTemplateEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Create or replace a template
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Template ID"
//	@Param			request	body		templates.Template	true	"Template"
//	@Success		200		{object}	templates.Template
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/templates/{id} [post]
func (e *SaveTemplateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := storeOrUnavailable(w, r)
	if store == nil {
		return
	}

	var t templates.Template
	if err := decodeBody(w, r, &t); err != nil {
		writeServiceError(w, err)
		return
	}
	t.ID = r.PathValue("id")

	existing, err := store.Get(t.ID)
	switch {
	case err == nil:
		t.CreatedAt = existing.CreatedAt
	case errors.Is(err, templates.ErrNotFound):
	default:
		writeServiceError(w, err)
		return
	}

	saved, err := store.Save(&t)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	svcctx.LoggerFrom(r.Context()).Info("template saved", "id", saved.ID, "fields", len(saved.Fields))
	writeJSON(w, http.StatusOK, saved)
}

func (e *SaveTemplateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Create or replace a template from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var t templates.Template
			if err := yaml.Unmarshal(data, &t); err != nil {
				return fmt.Errorf("failed to parse %s: %w", file, err)
			}

			client := api.NewClient(getServerURL())
			var saved templates.Template
			if err := client.Post(cmd.Context(), "/api/templates/"+args[0], t, &saved); err != nil {
				return err
			}
			return api.Output(saved)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Template definition (YAML)")
	return templatesCommand(cmd)
}

// DeleteTemplateEndpoint handles DELETE /api/templates/{id}.
type DeleteTemplateEndpoint struct{}

func (e *DeleteTemplateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/templates/{id}", e.handler
}

func (e *DeleteTemplateEndpoint) RequiresInit() bool { return false }

func (e *DeleteTemplateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := storeOrUnavailable(w, r)
	if store == nil {
		return
	}
	if err := store.Delete(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteTemplateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return templatesCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/templates/"+args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", args[0])
			return nil
		},
	})
}
