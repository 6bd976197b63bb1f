package pages

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// Chat is the single entry page. Everything interactive happens over the
// WebSocket at /ws; this page only bootstraps a minimal client for it.
func Chat() cmp.Node {
	return g.HTML(
		g.Lang("en"),
		g.Head(
			g.Meta(g.Charset("utf-8")),
			g.TitleEl(cmp.Text("Parley")),
			g.StyleEl(cmp.Raw(`
				body { font-family: sans-serif; margin: 2rem; }
				#log { border: 1px solid #ccc; height: 20rem; overflow-y: auto; padding: .5rem; }
				#users li { cursor: pointer; }
				.meta { color: #888; font-size: .8rem; }
			`)),
		),
		g.Body(
			g.H1(cmp.Text("Parley")),
			g.Div(
				g.ID("register"),
				g.Input(g.ID("username"), g.Placeholder("Pick a username")),
				g.Button(g.ID("register-btn"), cmp.Text("Register")),
			),
			g.Div(
				g.ID("compose"),
				g.Input(g.ID("recipient"), g.Placeholder("Recipient")),
				g.Input(g.ID("message"), g.Placeholder("Message")),
				g.Button(g.ID("send-btn"), cmp.Text("Send")),
				g.Button(g.ID("history-btn"), cmp.Text("History")),
			),
			g.Div(g.ID("log")),
			g.H2(cmp.Text("Online")),
			g.Ul(g.ID("users")),
			g.Script(cmp.Raw(chatScript)),
		),
	)
}

const chatScript = `
const proto = location.protocol === "https:" ? "wss" : "ws";
const sock = new WebSocket(proto + "://" + location.host + "/ws");
const log = (line) => {
	const el = document.createElement("div");
	el.textContent = line;
	document.getElementById("log").appendChild(el);
};
const send = (event, data) => sock.send(JSON.stringify({event: event, data: data}));

sock.onmessage = (raw) => {
	const frame = JSON.parse(raw.data);
	switch (frame.event) {
	case "error":
		log("error: " + frame.data);
		break;
	case "new_message":
		log(frame.data.username + ": " + frame.data.message +
			(frame.data.delivered ? "" : " (undelivered)"));
		break;
	case "history":
		log("--- history (" + frame.data.length + " messages) ---");
		frame.data.forEach((m) => log(m.username + ": " + m.message));
		break;
	case "user_list":
		const users = document.getElementById("users");
		users.innerHTML = "";
		frame.data.forEach((u) => {
			const li = document.createElement("li");
			li.textContent = u.username + " (last seen " + u.last_seen + ")";
			li.onclick = () => { document.getElementById("recipient").value = u.username; };
			users.appendChild(li);
		});
		break;
	}
};

document.getElementById("register-btn").onclick = () =>
	send("register_username", {username: document.getElementById("username").value});
document.getElementById("send-btn").onclick = () =>
	send("send_private_message", {
		recipient: document.getElementById("recipient").value,
		message: document.getElementById("message").value,
	});
document.getElementById("history-btn").onclick = () =>
	send("get_history", {other_user: document.getElementById("recipient").value});
`
