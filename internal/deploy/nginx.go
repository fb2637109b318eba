package deploy

import (
	"bytes"
	"fmt"
	"text/template"
)

// vhostParams drives the server-block template for one domain.
type vhostParams struct {
	Domain      string
	Root        string // {webRoot}/{domain}/current
	SSL         bool   // render the 443 block; never downgraded once set
	CommentsAPI bool   // reverse-proxy /api/comments to the comments service
}

// Long-cache extensions are hashed assets; HTML stays revalidated.
const vhostTemplate = `server {
    listen 80;
    server_name {{.Domain}} www.{{.Domain}};
{{- if .SSL}}
    return 301 https://{{.Domain}}$request_uri;
}

server {
    listen 443 ssl http2;
    server_name {{.Domain}} www.{{.Domain}};

    ssl_certificate /etc/letsencrypt/live/{{.Domain}}/fullchain.pem;
    ssl_certificate_key /etc/letsencrypt/live/{{.Domain}}/privkey.pem;
{{- end}}

    root {{.Root}};
    index index.html;

    location ~* \.(css|js|png|jpg|jpeg|gif|svg|ico|woff|woff2)$ {
        expires 30d;
        add_header Cache-Control "public, immutable";
    }
{{- if .CommentsAPI}}

    location /api/comments/ {
        proxy_pass http://127.0.0.1:8085;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
    }
{{- end}}

    location / {
        try_files $uri $uri/ $uri.html =404;
    }
}
`

var vhostTmpl = template.Must(template.New("vhost").Parse(vhostTemplate))

// renderVhost produces the nginx server-block file for a domain.
func renderVhost(p vhostParams) (string, error) {
	var buf bytes.Buffer
	if err := vhostTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render vhost config: %w", err)
	}
	return buf.String(), nil
}
