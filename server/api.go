package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/gammadia/furnace/api"
	"github.com/gammadia/furnace/server/log"
	stackpkg "github.com/gammadia/furnace/stack"
	"github.com/gammadia/furnace/template"
	"github.com/gammadia/furnace/template/parse"
)

func newAPIHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/status", handleStatus)
	mux.HandleFunc("POST /v1/validate", handleValidate)
	mux.HandleFunc("GET /v1/stacks", handleListStacks)
	mux.HandleFunc("POST /v1/stacks", handleCreateStack)
	mux.HandleFunc("GET /v1/stacks/{name}", handleGetStack)
	mux.HandleFunc("POST /v1/stacks/{name}", handleUpdateStack)
	mux.HandleFunc("DELETE /v1/stacks/{name}", handleDeleteStack)
	mux.HandleFunc("GET /v1/stacks/{name}/events", handleStackEvents)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stackpkg.ErrStackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, stackpkg.ErrStackExists), errors.Is(err, stackpkg.ErrOperationInProgress):
		status = http.StatusConflict
	case errors.Is(err, stackpkg.ErrShuttingDown):
		status = http.StatusServiceUnavailable
	default:
		// Everything the engine rejects up front is the caller's fault.
		status = http.StatusBadRequest
	}
	writeJSON(w, status, api.Error{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// parseTemplate picks the frontend from the declared format.
func parseTemplate(source, format string) (*template.Template, stackpkg.TemplateFormat, error) {
	switch format {
	case "", "yaml":
		tmpl, err := parse.File("template.yaml", []byte(source))
		return tmpl, stackpkg.FormatYAML, err
	case "hcl":
		tmpl, err := parse.File("template.hcl", []byte(source))
		return tmpl, stackpkg.FormatHCL, err
	default:
		return nil, "", fmt.Errorf("unknown template format '%s' (expected yaml or hcl)", format)
	}
}

func asParams(values map[string]string) map[string]any {
	return lo.MapEntries(values, func(key, value string) (string, any) {
		return key, any(value)
	})
}

// errorLines flattens accumulated validation errors into one line each.
func errorLines(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return lo.Map(merr.Errors, func(e error, _ int) string { return e.Error() })
	}
	return []string{err.Error()}
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentStatus())
}

func handleValidate(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	response := api.ValidateResponse{Valid: true}
	tmpl, _, err := parseTemplate(req.Template, req.Format)
	if err == nil {
		err = engine.CheckTypes(tmpl)
	}
	if err != nil {
		response.Valid = false
		response.Errors = errorLines(err)
	}
	writeJSON(w, http.StatusOK, response)
}

func handleCreateStack(w http.ResponseWriter, r *http.Request) {
	var req api.CreateStackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tmpl, format, err := parseTemplate(req.Template, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := engine.Create(req.Name, tmpl, req.Template, format, asParams(req.Parameters)); err != nil {
		writeError(w, err)
		return
	}

	stack, _ := engine.Get(req.Name)
	writeJSON(w, http.StatusAccepted, stack.Record())
}

func handleListStacks(w http.ResponseWriter, r *http.Request) {
	records := lo.Map(engine.List(), func(s *stackpkg.Stack, _ int) *api.Stack {
		return s.Record()
	})
	writeJSON(w, http.StatusOK, records)
}

func handleGetStack(w http.ResponseWriter, r *http.Request) {
	stack, ok := engine.Get(r.PathValue("name"))
	if !ok {
		writeError(w, fmt.Errorf("%w: '%s'", stackpkg.ErrStackNotFound, r.PathValue("name")))
		return
	}
	writeJSON(w, http.StatusOK, stack.Record())
}

func handleUpdateStack(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateStackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	name := r.PathValue("name")
	tmpl, format, err := parseTemplate(req.Template, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := engine.Update(name, tmpl, req.Template, format, asParams(req.Parameters)); err != nil {
		writeError(w, err)
		return
	}

	stack, _ := engine.Get(name)
	writeJSON(w, http.StatusAccepted, stack.Record())
}

func handleDeleteStack(w http.ResponseWriter, r *http.Request) {
	if err := engine.Delete(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func handleStackEvents(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := engine.Get(name); !ok {
		writeError(w, fmt.Errorf("%w: '%s'", stackpkg.ErrStackNotFound, name))
		return
	}
	events, err := engine.Events(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.Error{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
