package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Key names a transactional email template.
type Key string

const (
	KeyApplicationSubmitted Key = "application-submitted"
	KeyHRNewApplication     Key = "hr-new-application"
	KeyStatusUpdate         Key = "status-update"
	KeyJobOffer             Key = "job-offer"
	KeyWelcomeHired         Key = "welcome-hired"
	KeyInterviewScheduled   Key = "interview-scheduled"
	KeyHRStatusUpdate       Key = "hr-status-update"
	KeyVerifyEmail          Key = "verify-email"
)

type ApplicationSubmittedParams struct {
	Name       string
	JobTitle   string
	SchoolSite string
}

type HRNewApplicationParams struct {
	ApplicantName  string
	ApplicantEmail string
	JobTitle       string
	SchoolSite     string
	ApplicationID  string
}

type StatusUpdateParams struct {
	Name      string
	JobTitle  string
	NewStatus string
	Comment   string
}

type JobOfferParams struct {
	Name       string
	JobTitle   string
	SchoolSite string
	StartDate  string
	Salary     *float64
}

type WelcomeHiredParams struct {
	Name       string
	JobTitle   string
	SchoolSite string
	StartDate  string
}

type InterviewDetails struct {
	Stage       string    `json:"stage"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location,omitempty"`
	JoinLink    string    `json:"join_link,omitempty"`
}

type InterviewScheduledParams struct {
	Name     string
	JobTitle string
	Details  InterviewDetails
}

type HRStatusUpdateParams struct {
	ApplicantName  string
	ApplicantEmail string
	JobTitle       string
	SchoolSite     string
	NewStatus      string
	Comment        string
	ApplicationID  string
}

type VerifyEmailParams struct {
	Name  string
	Token string
}

const layout = `<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: linear-gradient(135deg, {{.Accent}} 0%, {{.AccentDark}} 100%); color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0; }
      .content { background: #f9fafb; padding: 30px; border-radius: 0 0 8px 8px; }
      .button { display: inline-block; padding: 12px 24px; background: {{.Accent}}; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
      .status-badge { display: inline-block; padding: 8px 16px; background: #dbeafe; color: #1e40af; border-radius: 20px; font-weight: bold; margin: 10px 0; }
      .details-box { background: white; padding: 20px; border-radius: 6px; margin: 20px 0; }
      .detail-row { margin: 10px 0; }
      .detail-label { font-weight: bold; color: #4b5563; }
      .comment-box { background: white; padding: 15px; border-left: 4px solid {{.Accent}}; margin: 15px 0; }
      .footer { text-align: center; margin-top: 20px; color: #6b7280; font-size: 14px; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header"><h1>{{.Heading}}</h1></div>
      <div class="content">{{template "content" .}}</div>
      <div class="footer">
        {{if .Internal}}<p>This is an automated notification from HBA Jobs</p>{{else}}<p>Harvest, Wakanda, and Sankofa Schools</p>
        <p>&copy; {{.Year}} HBA Jobs. All rights reserved.</p>{{end}}
      </div>
    </div>
  </body>
</html>`

const (
	applicantAccent template.CSS = "#2563eb"
	applicantDark   template.CSS = "#4f46e5"
	hrAccent        template.CSS = "#10b981"
	hrDark          template.CSS = "#059669"
)

type emailTemplate struct {
	heading  string
	internal bool
	subject  func(data any) string
	content  string
	tmpl     *template.Template
}

var templates = map[Key]*emailTemplate{
	KeyApplicationSubmitted: {
		heading: "Application Submitted!",
		subject: func(d any) string { return "Application Received - " + d.(*ApplicationSubmittedParams).JobTitle },
		content: `<p>Dear {{.Data.Name}},</p>
<p>Thank you for applying to the <strong>{{.Data.JobTitle}}</strong> position at <strong>{{.Data.SchoolSite}}</strong>.</p>
<p>We have received your application and our hiring team will review it shortly. You will receive an email notification when there are updates to your application status.</p>
<p>You can track your application status at any time:</p>
<a href="{{.AppURL}}/my-applications" class="button">View My Applications</a>
<p>If you have any questions, please don't hesitate to contact our HR team.</p>
<p>Best regards,<br>HBA Jobs Team</p>`,
	},
	KeyHRNewApplication: {
		heading:  "New Application Received",
		internal: true,
		subject: func(d any) string {
			p := d.(*HRNewApplicationParams)
			return fmt.Sprintf("New Application - %s at %s", p.JobTitle, p.SchoolSite)
		},
		content: `<p>Hello HR Team,</p>
<p>A new application has been submitted for the <strong>{{.Data.JobTitle}}</strong> position at <strong>{{.Data.SchoolSite}}</strong>.</p>
<div class="details-box">
  <div class="detail-row"><span class="detail-label">Applicant:</span> {{.Data.ApplicantName}}</div>
  <div class="detail-row"><span class="detail-label">Email:</span> {{.Data.ApplicantEmail}}</div>
  <div class="detail-row"><span class="detail-label">Position:</span> {{.Data.JobTitle}}</div>
  <div class="detail-row"><span class="detail-label">School:</span> {{.Data.SchoolSite}}</div>
  <div class="detail-row"><span class="detail-label">Submitted:</span> {{.Now}}</div>
</div>
<p>Please review the application at your earliest convenience.</p>
<a href="{{.AppURL}}/admin/applicants/{{.Data.ApplicationID}}" class="button">Review Application</a>
<p>Best regards,<br>HBA Jobs System</p>`,
	},
	KeyStatusUpdate: {
		heading: "Application Status Update",
		subject: func(d any) string { return "Application Update - " + d.(*StatusUpdateParams).JobTitle },
		content: `<p>Dear {{.Data.Name}},</p>
<p>There's an update on your application for <strong>{{.Data.JobTitle}}</strong>.</p>
<p>Your application status has been changed to:</p>
<div class="status-badge">{{.Data.NewStatus}}</div>
{{if .Data.Comment}}<div class="comment-box"><strong>Note from Hiring Team:</strong><br>{{.Data.Comment}}</div>{{end}}
<p>You can view the full details of your application:</p>
<a href="{{.AppURL}}/my-applications" class="button">View Application Details</a>
<p>Best regards,<br>HBA Jobs Team</p>`,
	},
	KeyJobOffer: {
		heading: "Congratulations, You Have an Offer!",
		subject: func(d any) string { return "Job Offer - " + d.(*JobOfferParams).JobTitle },
		content: `<p>Dear {{.Data.Name}},</p>
<p>We are delighted to offer you the <strong>{{.Data.JobTitle}}</strong> position at <strong>{{.Data.SchoolSite}}</strong>.</p>
<div class="details-box">
  {{if .Data.StartDate}}<div class="detail-row"><span class="detail-label">Start:</span> {{.Data.StartDate}}</div>{{end}}
  {{if .Data.Salary}}<div class="detail-row"><span class="detail-label">Salary:</span> {{salary .Data.Salary}}</div>{{end}}
</div>
<p>Our HR team will follow up shortly with your formal offer letter and next steps.</p>
<a href="{{.AppURL}}/my-applications" class="button">View Application</a>
<p>Best regards,<br>HBA Jobs Team</p>`,
	},
	KeyWelcomeHired: {
		heading: "Welcome to the Team!",
		subject: func(d any) string { return "Welcome to " + d.(*WelcomeHiredParams).SchoolSite + "!" },
		content: `<p>Dear {{.Data.Name}},</p>
<p>Welcome aboard! We are thrilled that you are joining <strong>{{.Data.SchoolSite}}</strong> as our new <strong>{{.Data.JobTitle}}</strong>.</p>
{{if .Data.StartDate}}<div class="details-box"><div class="detail-row"><span class="detail-label">Start:</span> {{.Data.StartDate}}</div></div>{{end}}
<p>You will receive onboarding information from our HR team before your first day.</p>
<a href="{{.AppURL}}/my-applications" class="button">View Application</a>
<p>Best regards,<br>HBA Jobs Team</p>`,
	},
	KeyInterviewScheduled: {
		heading: "Interview Scheduled!",
		subject: func(d any) string { return "Interview Scheduled - " + d.(*InterviewScheduledParams).JobTitle },
		content: `<p>Dear {{.Data.Name}},</p>
<p>Great news! Your interview for the <strong>{{.Data.JobTitle}}</strong> position has been scheduled.</p>
<div class="details-box">
  <div class="detail-row"><span class="detail-label">Interview Type:</span> {{.Data.Details.Stage}}</div>
  <div class="detail-row"><span class="detail-label">Date &amp; Time:</span> {{when .Data.Details.ScheduledAt}}</div>
  {{if .Data.Details.Location}}<div class="detail-row"><span class="detail-label">Location:</span> {{.Data.Details.Location}}</div>{{end}}
  {{if .Data.Details.JoinLink}}<div class="detail-row"><span class="detail-label">Join Link:</span> <a href="{{.Data.Details.JoinLink}}">{{.Data.Details.JoinLink}}</a></div>{{end}}
</div>
<p>Please make sure to arrive on time and prepare for the interview. Good luck!</p>
<a href="{{.AppURL}}/my-applications" class="button">View Application</a>
<p>Best regards,<br>HBA Jobs Team</p>`,
	},
	KeyHRStatusUpdate: {
		heading:  "Application Status Changed",
		internal: true,
		subject: func(d any) string {
			p := d.(*HRStatusUpdateParams)
			return fmt.Sprintf("Status Update: %s - %s (%s)", p.ApplicantName, p.JobTitle, p.NewStatus)
		},
		content: `<p>Hello HR Team,</p>
<p>The application of <strong>{{.Data.ApplicantName}}</strong> for <strong>{{.Data.JobTitle}}</strong> at <strong>{{.Data.SchoolSite}}</strong> has moved to:</p>
<div class="status-badge">{{.Data.NewStatus}}</div>
<div class="details-box">
  <div class="detail-row"><span class="detail-label">Applicant:</span> {{.Data.ApplicantName}}</div>
  <div class="detail-row"><span class="detail-label">Email:</span> {{.Data.ApplicantEmail}}</div>
</div>
{{if .Data.Comment}}<div class="comment-box"><strong>Comment:</strong><br>{{.Data.Comment}}</div>{{end}}
<a href="{{.AppURL}}/admin/applicants/{{.Data.ApplicationID}}" class="button">Open Application</a>
<p>Best regards,<br>HBA Jobs System</p>`,
	},
	KeyVerifyEmail: {
		heading: "Confirm Your Email",
		subject: func(any) string { return "Confirm your HBA Jobs email address" },
		content: `<p>Dear {{.Data.Name}},</p>
<p>Please confirm your email address so you can follow your applications on HBA Jobs.</p>
<a href="{{.AppURL}}/verify-email?token={{.Data.Token}}" class="button">Confirm Email</a>
<p>The link is valid for 48 hours. If you did not create an account, you can ignore this email.</p>
<p>Best regards,<br>HBA Jobs Team</p>`,
	},
}

var funcs = template.FuncMap{
	"when": func(t time.Time) string { return t.Format("Monday, January 2, 2006 at 03:04 PM") },
	"salary": func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("$%.2f", *v)
	},
}

func init() {
	base := template.Must(template.New("layout").Funcs(funcs).Parse(layout))
	for _, t := range templates {
		t.tmpl = template.Must(template.Must(base.Clone()).New("content").Parse(t.content))
	}
}

type view struct {
	Heading    string
	Internal   bool
	Accent     template.CSS
	AccentDark template.CSS
	AppURL     string
	Year       int
	Now        string
	Data       any
}

// paramsMatch reports whether data is the params type registered for key.
func paramsMatch(key Key, data any) bool {
	switch key {
	case KeyApplicationSubmitted:
		_, ok := data.(*ApplicationSubmittedParams)
		return ok
	case KeyHRNewApplication:
		_, ok := data.(*HRNewApplicationParams)
		return ok
	case KeyStatusUpdate:
		_, ok := data.(*StatusUpdateParams)
		return ok
	case KeyJobOffer:
		_, ok := data.(*JobOfferParams)
		return ok
	case KeyWelcomeHired:
		_, ok := data.(*WelcomeHiredParams)
		return ok
	case KeyInterviewScheduled:
		_, ok := data.(*InterviewScheduledParams)
		return ok
	case KeyHRStatusUpdate:
		_, ok := data.(*HRStatusUpdateParams)
		return ok
	case KeyVerifyEmail:
		_, ok := data.(*VerifyEmailParams)
		return ok
	}
	return false
}

// Render produces the subject and HTML body for a message.
func Render(appURL string, m Message) (subject, html string, err error) {
	s, ok := templates[m.Template]
	if !ok {
		return "", "", fmt.Errorf("notify: unknown template %q", m.Template)
	}
	if !paramsMatch(m.Template, m.Data) {
		return "", "", fmt.Errorf("notify: template %q got params of type %T", m.Template, m.Data)
	}

	now := time.Now()
	v := view{
		Heading:    s.heading,
		Internal:   s.internal,
		Accent:     applicantAccent,
		AccentDark: applicantDark,
		AppURL:     appURL,
		Year:       now.Year(),
		Now:        now.Format("Jan 2, 2006 3:04 PM"),
		Data:       m.Data,
	}
	if s.internal {
		v.Accent, v.AccentDark = hrAccent, hrDark
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", "", fmt.Errorf("notify: render %s: %w", m.Template, err)
	}
	return s.subject(m.Data), buf.String(), nil
}
