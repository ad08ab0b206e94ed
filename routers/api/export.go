package api

import (
	"html/template"
	"net/http"

	"lumina-server/models"

	"github.com/gin-gonic/gin"
)

// exportTmpl renders a project as a printable document: a title page, then
// one full page per story page with image and caption.
var exportTmpl = template.Must(template.New("export").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Project.Title}} - Lumina Studio Export</title>
<style>
  body { font-family: sans-serif; margin: 0; padding: 0; background: #fff; color: #1a1a1a; }
  .page { width: 100%; height: 100vh; page-break-after: always; display: flex; flex-direction: column; align-items: center; justify-content: center; position: relative; padding: 40px; box-sizing: border-box; }
  .title-page { text-align: center; }
  .title-page h1 { font-size: 4rem; margin-bottom: 1rem; font-weight: 800; letter-spacing: -2px; }
  .title-page p { font-size: 1.5rem; color: #666; font-weight: 600; text-transform: uppercase; letter-spacing: 4px; }
  .content-img { width: 100%; max-height: 60vh; object-fit: contain; border-radius: 20px; margin-bottom: 40px; }
  .caption { font-style: italic; font-size: 2rem; text-align: center; max-width: 800px; color: #333; }
  .page-num { position: absolute; bottom: 40px; right: 40px; font-weight: 800; color: #ccc; }
</style>
</head>
<body>
  <div class="page title-page">
    <h1>{{.Project.Title}}</h1>
    <p>{{.Project.Genre}} &middot; {{.Project.Style}}</p>
  </div>
{{range $i, $p := .Pages}}
  <div class="page">
    <img class="content-img" src="{{$p.ImageURL}}" alt="Page {{$p.Idx}}">
    <div class="caption">{{$p.Caption}}</div>
    <div class="page-num">{{inc $p.Idx}}</div>
  </div>
{{end}}
</body>
</html>`))

func ExportProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := models.GetProjectByID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found: " + err.Error()})
		return
	}
	pages, err := models.GetPagesByProjectID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pages: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := exportTmpl.Execute(c.Writer, gin.H{
		"Project": project,
		"Pages":   pages,
	}); err != nil {
		// headers already sent; record and bail
		_ = c.Error(err)
	}
}
