package httpcontroller

// indexPage is the single-page measurement dashboard. It polls the status and
// latest-result endpoints and draws the waveform on a canvas.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>EchoTube — Speed of Sound</title>
<style>
  body { font-family: sans-serif; margin: 2rem; display: flex; gap: 2rem; }
  #controls { width: 16rem; }
  #measure {
    font-size: 1.6rem; font-weight: bold; width: 100%; padding: 2rem 0;
    cursor: pointer;
  }
  #measure:disabled { cursor: wait; opacity: 0.6; }
  #status { margin-top: 1rem; font-size: 1.1rem; }
  #result { margin-top: 0.5rem; font-size: 1.1rem; white-space: pre-line; }
  #warn { color: #b00; margin-top: 1rem; }
  canvas { border: 1px solid #ccc; }
</style>
</head>
<body>
<div id="controls">
  <button id="measure">MEASURE<br>ECHO</button>
  <div id="status">Ready.</div>
  <div id="result"></div>
  <div id="warn"></div>
</div>
<div>
  <canvas id="plot" width="640" height="400"></canvas>
</div>
<script>
const btn = document.getElementById("measure");
const status = document.getElementById("status");
const result = document.getElementById("result");
const warn = document.getElementById("warn");
const canvas = document.getElementById("plot");
const ctx = canvas.getContext("2d");

function drawWave(r) {
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  const n = r.waveform.length;
  if (n === 0) return;
  const msPerSample = r.waveform_step / r.sample_rate * 1000;
  const totalMs = n * msPerSample;
  ctx.strokeStyle = "#225";
  ctx.beginPath();
  for (let i = 0; i < n; i++) {
    const x = i / n * canvas.width;
    const y = canvas.height / 2 * (1 - r.waveform[i]);
    if (i === 0) ctx.moveTo(x, y); else ctx.lineTo(x, y);
  }
  ctx.stroke();
  // mark the detected echo
  ctx.strokeStyle = "#b00";
  ctx.setLineDash([4, 4]);
  const ex = r.echo_time_ms / totalMs * canvas.width;
  ctx.beginPath();
  ctx.moveTo(ex, 0);
  ctx.lineTo(ex, canvas.height);
  ctx.stroke();
  ctx.setLineDash([]);
}

async function refreshLatest() {
  const resp = await fetch("/api/v1/measurements/latest");
  if (resp.status === 404) return;
  const r = await resp.json();
  if (r.status === "failed") {
    status.textContent = "Error!";
    result.textContent = r.error;
    return;
  }
  status.textContent = "Done!";
  result.textContent =
    "Echo time: " + r.echo_time_ms.toFixed(2) + " ms\n" +
    "Speed: " + r.speed_m_per_s.toFixed(1) + " m/s";
  warn.textContent = r.pulse_emitted ? "" : "(No buzzer detected)";
  drawWave(r);
}

async function poll() {
  const resp = await fetch("/api/v1/status");
  const s = await resp.json();
  if (s.state === "measuring") {
    btn.disabled = true;
    status.textContent = "Measuring...";
    setTimeout(poll, 150);
  } else {
    btn.disabled = false;
    await refreshLatest();
  }
}

btn.addEventListener("click", async () => {
  btn.disabled = true;
  result.textContent = "";
  const resp = await fetch("/api/v1/measurements", { method: "POST" });
  if (resp.status === 409) {
    status.textContent = "Already measuring...";
  }
  poll();
});

poll();
</script>
</body>
</html>
`
