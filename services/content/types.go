package content

// Storage keys
const (
	ProjectsKey     = "droidfolio_projects"
	TechnologiesKey = "droidfolio_technologies"
)

// DefaultImageURL is used for projects saved without an image
const DefaultImageURL = "https://picsum.photos/800/600"

type Project struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"imageUrl"`
	TechStack    []string `json:"techStack"`
	GithubURL    string   `json:"githubUrl,omitempty"`
	PlayStoreURL string   `json:"playStoreUrl,omitempty"`
	CreatedAt    int64    `json:"createdAt"` // unix millis
}

type Technology struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"` // devicon class string
}

func initialProjects(now int64) []Project {
	return []Project{
		{
			ID:           "1",
			Title:        "E-Commerce Dashboard",
			Description:  "A responsive admin dashboard for an e-commerce platform. Built with React and Tailwind CSS, featuring dark mode, data visualization charts, and order management tables.",
			ImageURL:     "https://picsum.photos/800/600?random=1",
			TechStack:    []string{"React", "TypeScript", "Tailwind CSS", "Recharts"},
			GithubURL:    "https://github.com",
			PlayStoreURL: "https://vercel.com",
			CreatedAt:    now,
		},
		{
			ID:          "2",
			Title:       "Weather Web App",
			Description: "Minimalist weather application consuming the OpenWeatherMap API. Features location-based weather updates, 5-day forecasting, and dynamic background changes based on conditions.",
			ImageURL:    "https://picsum.photos/800/600?random=2",
			TechStack:   []string{"JavaScript", "HTML5", "CSS3", "REST API"},
			GithubURL:   "https://github.com",
			CreatedAt:   now - 100000,
		},
		{
			ID:           "3",
			Title:        "Task Master",
			Description:  "A full-stack productivity tool for managing daily tasks. Implements JWT authentication, drag-and-drop task organization, and real-time updates using Socket.io.",
			ImageURL:     "https://picsum.photos/800/600?random=3",
			TechStack:    []string{"React", "Node.js", "Express", "MongoDB"},
			PlayStoreURL: "https://vercel.com",
			CreatedAt:    now - 200000,
		},
	}
}

var initialTechnologies = []Technology{
	{ID: "1", Name: "HTML5", Icon: "devicon-html5-plain colored"},
	{ID: "2", Name: "CSS3", Icon: "devicon-css3-plain colored"},
	{ID: "3", Name: "JavaScript", Icon: "devicon-javascript-plain colored"},
	{ID: "4", Name: "Java", Icon: "devicon-java-plain colored"},
	{ID: "5", Name: "Python", Icon: "devicon-python-plain colored"},
	{ID: "6", Name: "PHP", Icon: "devicon-php-plain colored"},
	{ID: "7", Name: "WordPress", Icon: "devicon-wordpress-plain colored"},
	{ID: "8", Name: "Docker", Icon: "devicon-docker-plain colored"},
	{ID: "9", Name: "Web Sockets", Icon: "devicon-socketio-original colored"},
	{ID: "10", Name: "Kubernetes", Icon: "devicon-kubernetes-plain colored"},
	{ID: "11", Name: "React", Icon: "devicon-react-original colored"},
	{ID: "12", Name: "Node.js", Icon: "devicon-nodejs-plain colored"},
	{ID: "13", Name: "MongoDB", Icon: "devicon-mongodb-plain colored"},
	{ID: "14", Name: "PostgreSQL", Icon: "devicon-postgresql-plain colored"},
	{ID: "15", Name: "MySQL", Icon: "devicon-mysql-plain colored"},
	{ID: "16", Name: "Figma", Icon: "devicon-figma-plain colored"},
	{ID: "17", Name: "Canva", Icon: "devicon-canva-original colored"},
}
