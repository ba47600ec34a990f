package relay

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/rileyhilliard/trainwatch/internal/metric"
)

// kindInfo tells the page how to route and plot each event.
type kindInfo struct {
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Type   string `json:"type"`
	Metric string `json:"metric"`
	Exp    bool   `json:"exp"`
	Log    bool   `json:"log"`
}

func pageKinds() []kindInfo {
	kinds := metric.Kinds()
	out := make([]kindInfo, 0, len(kinds))
	for _, k := range kinds {
		typ, name := k.Source()
		out = append(out, kindInfo{
			Kind:   k.String(),
			Label:  k.Label(),
			Color:  k.Color(),
			Type:   typ,
			Metric: name,
			Exp:    k == metric.KindPerplexity,
			Log:    k == metric.KindPerplexity,
		})
	}
	return out
}

var indexTemplate = template.Must(template.New("index").Parse(tmplIndex))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	kinds, err := json.Marshal(pageKinds())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snapshot, err := json.Marshal(s.board.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		Title  string
		WSPath string
		Kinds  template.JS
		Series template.JS
	}{
		Title:  "trainwatch",
		WSPath: "/ws/metrics",
		Kinds:  template.JS(kinds),
		Series: template.JS(snapshot),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error("template error: %v", err)
	}
}

const tmplIndex = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:'JetBrains Mono',monospace,sans-serif;background:#0d1117;color:#c9d1d9;font-size:13px;line-height:1.5}
nav{background:#161b22;border-bottom:1px solid #30363d;padding:8px 16px;display:flex;gap:16px;align-items:center}
nav .brand{color:#f0f6fc;font-weight:700;font-size:15px}
nav .status{margin-left:auto;font-size:12px}
.status.live{color:#56d364}
.status.down{color:#f85149}
.status.pending{color:#f59e0b}
main{padding:16px;display:grid;grid-template-columns:repeat(auto-fill,minmax(420px,1fr));gap:12px}
.card{background:#161b22;border:1px solid #30363d;border-radius:6px;padding:12px 16px}
.card h2{font-size:13px;font-weight:600;color:#f0f6fc;display:flex;justify-content:space-between}
.card h2 .val{color:#8b949e;font-weight:400}
.card canvas{width:100%;height:180px;display:block;margin-top:8px}
</style>
</head>
<body>
<nav><span class="brand">{{.Title}}</span><span id="status" class="status pending">connecting</span></nav>
<main id="cards"></main>
<script>
const kinds = {{.Kinds}};
const initial = {{.Series}};
const wsPath = {{.WSPath}};

const series = {};
for (const k of kinds) {
  const snap = initial.find(s => s.kind === k.kind);
  series[k.kind] = {labels: snap ? snap.labels.slice() : [], data: snap ? snap.data.slice() : []};
}

const cards = document.getElementById('cards');
const canvases = {};
for (const k of kinds) {
  const card = document.createElement('div');
  card.className = 'card';
  card.innerHTML = '<h2><span></span><span class="val">-</span></h2><canvas></canvas>';
  card.querySelector('h2 span').textContent = k.label + (k.log ? ' (log)' : '');
  cards.appendChild(card);
  canvases[k.kind] = {canvas: card.querySelector('canvas'), value: card.querySelector('.val')};
}

function draw(k) {
  const s = series[k.kind];
  const {canvas, value} = canvases[k.kind];
  const dpr = window.devicePixelRatio || 1;
  canvas.width = canvas.clientWidth * dpr;
  canvas.height = canvas.clientHeight * dpr;
  const ctx = canvas.getContext('2d');
  ctx.clearRect(0, 0, canvas.width, canvas.height);

  const ys = s.data.map(v => (v === null || (k.log && v <= 0)) ? null : (k.log ? Math.log10(v) : v));
  const finite = ys.filter(v => v !== null && isFinite(v));
  if (finite.length === 0) return;
  const last = s.data[s.data.length - 1];
  value.textContent = last === null ? 'n/a' : Number(last).toPrecision(5);

  const lo = Math.min(...finite), hi = Math.max(...finite);
  const span = hi > lo ? hi - lo : 1;
  const pad = 6 * dpr;
  const w = canvas.width - 2 * pad, h = canvas.height - 2 * pad;

  ctx.strokeStyle = k.color;
  ctx.lineWidth = 1.5 * dpr;
  ctx.beginPath();
  let pen = false;
  ys.forEach((v, i) => {
    if (v === null || !isFinite(v)) { pen = false; return; }
    const x = pad + (ys.length === 1 ? w : (i / (ys.length - 1)) * w);
    const y = pad + h - ((v - lo) / span) * h;
    if (pen) ctx.lineTo(x, y); else ctx.moveTo(x, y);
    pen = true;
  });
  ctx.stroke();
}

let pending = false;
function schedule() {
  if (pending) return;
  pending = true;
  requestAnimationFrame(() => { pending = false; kinds.forEach(draw); });
}

function apply(ev) {
  const k = kinds.find(k => k.type === ev.type && k.metric === ev.metric);
  if (!k || typeof ev.step !== 'number' || typeof ev.value !== 'number') return;
  const s = series[k.kind];
  s.labels.push(ev.step);
  s.data.push(k.exp ? Math.exp(ev.value) : ev.value);
  schedule();
}

const status = document.getElementById('status');
function setStatus(text, cls) { status.textContent = text; status.className = 'status ' + cls; }

let delay = 500;
function connect() {
  const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + wsPath);
  ws.onopen = () => { delay = 500; setStatus('live', 'live'); };
  ws.onmessage = e => { try { apply(JSON.parse(e.data)); } catch (_) {} };
  ws.onclose = () => {
    setStatus('reconnecting', 'pending');
    setTimeout(connect, delay);
    delay = Math.min(delay * 2, 30000);
  };
}

window.addEventListener('resize', schedule);
schedule();
connect();
</script>
</body>
</html>
`
