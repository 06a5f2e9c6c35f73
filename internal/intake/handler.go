package intake

import (
	"encoding/json"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"hbajobs-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// POST /api/jobs/:id/apply (multipart/form-data)
//
// Fields: first_name, last_name, email, phone, address, city, state, zip,
// linkedin, website, source, years_experience, certifications, answers (JSON).
// Files: resume (required), cover_letter, additional_documents (repeatable).
func SubmitHandler(svc *Service, maxUploadMB int) fiber.Handler {
	maxBytes := int64(maxUploadMB) << 20
	return func(c *fiber.Ctx) error {
		jobID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
		}

		req := SubmitRequest{
			JobPostingID:   jobID,
			FirstName:      c.FormValue("first_name"),
			LastName:       c.FormValue("last_name"),
			Email:          c.FormValue("email"),
			Phone:          c.FormValue("phone"),
			Address:        c.FormValue("address"),
			City:           c.FormValue("city"),
			State:          c.FormValue("state"),
			Zip:            c.FormValue("zip"),
			LinkedIn:       c.FormValue("linkedin"),
			Website:        c.FormValue("website"),
			Source:         c.FormValue("source"),
			Certifications: c.FormValue("certifications"),
		}

		if v := strings.TrimSpace(c.FormValue("years_experience")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "years_experience must be a whole number")
			}
			req.YearsExperience = &n
		}

		if v := strings.TrimSpace(c.FormValue("answers")); v != "" {
			answers, err := parseAnswers(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "answers must be a JSON object or list")
			}
			req.Answers = answers
		}

		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected multipart/form-data")
		}

		resume, closeResume, err := openUpload(form, "resume", maxBytes)
		if err != nil {
			return err
		}
		defer closeResume()
		req.Resume = resume

		cover, closeCover, err := openUpload(form, "cover_letter", maxBytes)
		if err != nil {
			return err
		}
		defer closeCover()
		req.CoverLetter = cover

		extra, closeExtra, err := openUploads(form, "additional_documents", maxBytes)
		defer closeExtra()
		if err != nil {
			return err
		}
		req.AdditionalDocs = extra

		app, err := svc.Submit(c.UserContext(), req)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":        true,
			"application_id": app.ID,
		})
	}
}

// openUpload returns a nil document when the form has no such file.
func openUpload(form *multipart.Form, field string, maxBytes int64) (*Document, func(), error) {
	noop := func() {}
	files := form.File[field]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, noop, fiber.NewError(fiber.StatusRequestEntityTooLarge, field+" is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, fiber.NewError(fiber.StatusBadRequest, "could not open "+field)
	}
	return &Document{Filename: fh.Filename, Content: f}, func() { f.Close() }, nil
}

// openUploads opens every file under field. The returned close func is always
// safe to call, including after an error.
func openUploads(form *multipart.Form, field string, maxBytes int64) ([]*Document, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	files := form.File[field]
	if len(files) > MaxAdditionalDocs {
		return nil, closeAll, fiber.NewError(fiber.StatusBadRequest, "too many "+field)
	}
	docs := make([]*Document, 0, len(files))
	for _, fh := range files {
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, closeAll, fiber.NewError(fiber.StatusRequestEntityTooLarge, fh.Filename+" is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fiber.NewError(fiber.StatusBadRequest, "could not open "+field)
		}
		opened = append(opened, f)
		docs = append(docs, &Document{Filename: fh.Filename, Content: f})
	}
	return docs, closeAll, nil
}

// parseAnswers accepts either {"question": "answer"} or [{"question":..,"answer":..}].
func parseAnswers(raw string) ([]Answer, error) {
	var list []Answer
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}
	var byQuestion map[string]string
	if err := json.Unmarshal([]byte(raw), &byQuestion); err != nil {
		return nil, err
	}
	questions := make([]string, 0, len(byQuestion))
	for q := range byQuestion {
		questions = append(questions, q)
	}
	sort.Strings(questions)
	out := make([]Answer, 0, len(questions))
	for _, q := range questions {
		out = append(out, Answer{Question: q, Answer: byQuestion[q]})
	}
	return out, nil
}
