package api

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"lemiel/internal/model"
	"lemiel/internal/render"
)

func (s *Server) handleDirectoryPage(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("department")
	if selected == "" {
		selected = render.FilterAll
	}

	var plugs []model.Plug
	if selected == render.FilterAll {
		plugs = s.state.UniquePlugs()
	} else {
		plugs = s.state.DepartmentPlugs(selected)
	}
	departments, counts := s.state.DepartmentList()

	var buf bytes.Buffer
	page := render.BuildDirectoryPage(departments, counts, plugs, selected)
	if err := s.renderer.Directory(&buf, page); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	target, err := s.links.Check(r.URL.Query().Get("url"))
	if err != nil {
		s.logger.Warn("Blocked contact link", zap.String("url", r.URL.Query().Get("url")), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Lien non autorisé: " + err.Error()})
		return
	}
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (s *Server) handleListPlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Plugs())
}

func (s *Server) handleUniquePlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.UniquePlugs())
}

func (s *Server) handleGetPlug(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plug, err := s.state.Plug(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plug)
}

func (s *Server) handleAddPlug(w http.ResponseWriter, r *http.Request) {
	var input model.PlugInput
	if err := decodeBody(w, r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	plug, err := s.state.AddPlug(r.Context(), adminName(r), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plug)
}

func (s *Server) handleDeletePlug(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plug, err := s.state.DeletePlug(r.Context(), adminName(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plug)
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Departments())
}

func (s *Server) handleDepartmentPlugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.DepartmentPlugs(r.PathValue("code")))
}

func (s *Server) handleAddDepartment(w http.ResponseWriter, r *http.Request) {
	var req model.Department
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	dept, err := s.state.AddDepartment(r.Context(), adminName(r), req.Code, req.Name, req.Emoji)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := s.state.DeleteDepartment(r.Context(), adminName(r), r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.AdminsSection{Whitelist: s.state.Admins()})
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := s.state.AddAdmin(r.Context(), adminName(r), req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": name})
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	name, err := s.state.RemoveAdmin(r.Context(), adminName(r), r.PathValue("username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": name})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Reviews())
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var input model.ReviewInput
	if err := decodeBody(w, r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if input.Username == "" {
		input.Username = adminName(r)
	}
	review, err := s.state.SubmitReview(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleApproveReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.state.ApproveReview(r.Context(), adminName(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleRejectReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.state.RejectReview(r.Context(), adminName(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.state.DeleteReview(r.Context(), adminName(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.state.Logs(adminName(r), r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.state.ClearLogs(r.Context(), adminName(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.state.Export(adminName(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="config.json"`)
	_, _ = w.Write(data)
}
