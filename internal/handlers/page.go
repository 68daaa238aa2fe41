package handlers

import (
	"html/template"
	"net/http"

	"nhs-dashboard/internal/presentation"
	"nhs-dashboard/pkg/logging"
)

const (
	appTitle       = "NHS Dashboard"
	dashboardTitle = "NHS Appointments Dashboard"
	modeLabel      = "Select Appointment Mode:"
)

// pageData is everything the dashboard template needs for the first paint.
// The figures are embedded as JSON by html/template's script context.
type pageData struct {
	AppTitle    string
	Heading     string
	ModeLabel   string
	Placeholder string
	Cards       []presentation.KPICard
	Options     []presentation.Option
	Line        presentation.LineFigure
	Bar         presentation.BarFigure
}

var pages = template.Must(template.New("dashboard").Parse(dashboardTemplate))

func init() {
	template.Must(pages.New("swagger").Parse(swaggerTemplate))
}

// Page serves the dashboard at GET /
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		AppTitle:    appTitle,
		Heading:     dashboardTitle,
		ModeLabel:   modeLabel,
		Placeholder: modePlaceholder,
		Cards:       h.dashboard.Cards(),
		Options:     h.dashboard.ModeOptions(),
		Line:        h.dashboard.ModeLine(r.Context(), "", "page"),
		Bar:         h.dashboard.SeasonBar(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "dashboard", data); err != nil {
		h.logger.Error(r.Context(), "[PAGE_RENDER_ERROR] Failed to render dashboard", logging.Fields{}, err)
		h.metrics.RecordAPIError("template_error", "/")
	}
}

// SwaggerUI serves the Swagger UI HTML page
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.ExecuteTemplate(w, "swagger", nil)
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.AppTitle}}</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootswatch@5.3.3/dist/lux/bootstrap.min.css">
    <script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
</head>
<body>
<div class="container-fluid">
    <div class="row">
        <div class="col text-center">
            <h1 class="mt-4 mb-4">{{.Heading}}</h1>
        </div>
    </div>

    <div class="row mb-4">
        {{range .Cards}}
        <div class="col-md-4">
            <div class="card">
                <div class="card-body">
                    <h4 class="card-title">{{.Title}}</h4>
                    <p class="card-text" id="{{.ID}}">{{.Value}}</p>
                </div>
            </div>
        </div>
        {{end}}
    </div>

    <div class="row mb-4">
        <div class="col-md-6">
            <label for="mode-filter">{{.ModeLabel}}</label>
            <select id="mode-filter" class="form-select">
                <option value="">{{.Placeholder}}</option>
                {{range .Options}}<option value="{{.Value}}">{{.Label}}</option>
                {{end}}
            </select>
        </div>
    </div>

    <div class="row">
        <div class="col-md-12"><div id="mode-line"></div></div>
    </div>

    <hr>

    <div class="row">
        <div class="col-md-12"><div id="season-bar"></div></div>
    </div>
</div>

<script>
    const initialLine = {{.Line}};
    const seasonBar = {{.Bar}};

    function drawLine(fig) {
        const traces = (fig.traces || []).map(t => ({x: t.x, y: t.y, name: t.name, type: "scatter", mode: "lines"}));
        Plotly.react("mode-line", traces, {
            title: fig.title,
            xaxis: {title: fig.x_label},
            yaxis: {title: fig.y_label},
            legend: {title: {text: "appointment_mode"}}
        });
    }

    function drawBar(fig) {
        Plotly.newPlot("season-bar", [{
            x: fig.bars.map(b => b.category),
            y: fig.bars.map(b => b.value),
            type: "bar"
        }], {
            title: fig.title,
            xaxis: {title: fig.x_label},
            yaxis: {title: fig.y_label}
        });
    }

    function fetchLine(mode) {
        fetch("/api/charts/mode-line?mode=" + encodeURIComponent(mode))
            .then(r => r.json())
            .then(drawLine);
    }

    let socket = null;
    function connect() {
        const scheme = location.protocol === "https:" ? "wss://" : "ws://";
        socket = new WebSocket(scheme + location.host + "/ws/mode-line");
        socket.onmessage = ev => drawLine(JSON.parse(ev.data));
        socket.onclose = () => { socket = null; };
    }

    document.getElementById("mode-filter").addEventListener("change", ev => {
        const mode = ev.target.value;
        if (socket && socket.readyState === WebSocket.OPEN) {
            socket.send(JSON.stringify({mode: mode}));
        } else {
            fetchLine(mode);
        }
    });

    drawLine(initialLine);
    drawBar(seasonBar);
    connect();
</script>
</body>
</html>`

const swaggerTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>NHS Appointments Dashboard API</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        body { margin:0; padding:0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "/api/docs/openapi.json",
                dom_id: '#swagger-ui',
                deepLinking: true
            });
        };
    </script>
</body>
</html>`
