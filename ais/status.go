// Package ais provides the dlsim HTTP server: download, status page,
// statistics API, and metrics.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ais

import (
	"html/template"
	"net/http"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/stats"
)

const notAvailable = "n/a"

type statusView struct {
	Downloads string
	AvgSpeed  string
	Transfer  string
	WSPath    string
}

var statusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>dlsim</title>
</head>
<body>
<h1>dlsim</h1>
<table>
<tr><td>Downloads</td><td id="downloads">{{.Downloads}}</td></tr>
<tr><td>Average speed</td><td id="speed">{{.AvgSpeed}}</td></tr>
<tr><td>Transferred</td><td id="transfer">{{.Transfer}}</td></tr>
</table>
<script>
(function () {
  var units = ["B", "KiB", "MiB", "GiB", "TiB", "PiB"];
  function size(n) {
    var i = 0;
    while (n >= 1024 && i < units.length - 1) { n /= 1024; i++; }
    return (i === 0 ? n.toFixed(0) : parseFloat(n.toFixed(2))) + units[i];
  }
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "{{.WSPath}}");
  ws.onmessage = function (ev) {
    var s = JSON.parse(ev.data);
    document.getElementById("downloads").textContent = s["downloads"].toLocaleString("en-US");
    document.getElementById("speed").textContent = s["speed.count"] > 0 ? size(s["speed.avg"]) + "/s" : "n/a";
    document.getElementById("transfer").textContent = size(s["transfer"]);
  };
})();
</script>
</body>
</html>
`))

func newStatusView(st *stats.Statistics) *statusView {
	v := &statusView{
		Downloads: cos.FormatBigI64(st.DownloadCount),
		AvgSpeed:  notAvailable,
		Transfer:  cos.ToSizeIEC(st.TransferredBytes, 2),
		WSPath:    pathStatsWS,
	}
	if avg, ok := st.AvgSpeed(); ok {
		v.AvgSpeed = cos.FormatRate(avg)
	}
	return v
}

// GET /
func (s *server) statusPage(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	w.Header().Set(cos.HdrContentType, cos.ContentHTML)
	w.Header().Set(cos.HdrCacheControl, "no-store")
	if err := statusTmpl.Execute(w, newStatusView(&st)); err != nil {
		handleWriteError(r, "status", err)
	}
}
