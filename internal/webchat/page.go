package webchat

// chatPage is a minimal self-contained chat UI for trying the assistant
// from a browser without embedding the widget anywhere.
const chatPage = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>VetCare AI</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; background: #f4f6f8; }
  #chat { max-width: 640px; margin: 2rem auto; background: #fff; border-radius: 8px;
          box-shadow: 0 1px 4px rgba(0,0,0,.15); display: flex; flex-direction: column;
          height: 80vh; }
  #header { padding: .8rem 1rem; background: #2a7f62; color: #fff; border-radius: 8px 8px 0 0;
            font-weight: 600; }
  #log { flex: 1; overflow-y: auto; padding: 1rem; }
  .msg { margin: .4rem 0; padding: .5rem .8rem; border-radius: 10px; max-width: 80%;
         white-space: pre-wrap; }
  .assistant { background: #eef3f0; }
  .user { background: #d5eadf; margin-left: auto; }
  #form { display: flex; border-top: 1px solid #ddd; }
  #input { flex: 1; border: 0; padding: .8rem; font-size: 1rem; outline: none; }
  #send { border: 0; background: #2a7f62; color: #fff; padding: 0 1.4rem; cursor: pointer; }
</style>
</head>
<body>
<div id="chat">
  <div id="header">VetCare AI · Asistente virtual</div>
  <div id="log"></div>
  <form id="form">
    <input id="input" autocomplete="off" placeholder="Escribe tu mensaje...">
    <button id="send" type="submit">Enviar</button>
  </form>
</div>
<script>
(function () {
  var log = document.getElementById('log');
  var form = document.getElementById('form');
  var input = document.getElementById('input');
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/webchat/ws');

  function add(role, text) {
    var div = document.createElement('div');
    div.className = 'msg ' + role;
    div.textContent = text;
    log.appendChild(div);
    log.scrollTop = log.scrollHeight;
  }

  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === 'message') add(msg.role || 'assistant', msg.text);
    if (msg.type === 'error') add('assistant', msg.text);
  };

  form.onsubmit = function (ev) {
    ev.preventDefault();
    var text = input.value.trim();
    if (!text || ws.readyState !== WebSocket.OPEN) return;
    add('user', text);
    ws.send(JSON.stringify({type: 'message', text: text}));
    input.value = '';
  };

  setInterval(function () {
    if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify({type: 'ping'}));
  }, 30000);
})();
</script>
</body>
</html>
`
