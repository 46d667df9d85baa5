package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"souschef/config"
	"souschef/controllers"
	"souschef/middlewares"
	"souschef/utils/types"
)

func RecipeRoutes(ctrl *controllers.RecipeController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var input types.RecipeInput
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			recipe, err := ctrl.Create(r.Context(), input)
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(recipe)
		})

		gr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			recipes, err := ctrl.List(r.Context())
			if err != nil {
				writeError(w, r, err)
				return
			}
			json.NewEncoder(w).Encode(recipes)
		})

		gr.Get("/{recipe_id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := recipeID(r)
			if err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			recipe, err := ctrl.Get(r.Context(), id)
			if err != nil {
				writeError(w, r, err)
				return
			}
			json.NewEncoder(w).Encode(recipe)
		})

		gr.Delete("/{recipe_id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := recipeID(r)
			if err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			if err := ctrl.Delete(r.Context(), id); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// POST /recipes/import : create a draft recipe from a web page
		gr.Post("/import", func(w http.ResponseWriter, r *http.Request) {
			var req types.ImportRecipeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			recipe, err := ctrl.Import(r.Context(), req.URL)
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(recipe)
		})

		gr.Post("/{recipe_id}/photo", func(w http.ResponseWriter, r *http.Request) {
			id, err := recipeID(r)
			if err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			file, header, err := r.FormFile("photo")
			if err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			defer file.Close()
			contentType := header.Header.Get("Content-Type")
			if err := ctrl.UploadPhoto(r.Context(), id, contentType, file, header.Size); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		gr.Get("/{recipe_id}/photo", func(w http.ResponseWriter, r *http.Request) {
			id, err := recipeID(r)
			if err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			photo, contentType, err := ctrl.GetPhoto(r.Context(), id)
			if err != nil {
				if errors.Is(err, controllers.ErrNoPhoto) {
					http.Error(w, "no_photo", http.StatusNotFound)
					return
				}
				writeError(w, r, err)
				return
			}
			defer photo.Close()
			w.Header().Set("Content-Type", contentType)
			io.Copy(w, photo)
		})
	})
	return r
}

func recipeID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "recipe_id"), 10, 32)
	return uint(id), err
}
