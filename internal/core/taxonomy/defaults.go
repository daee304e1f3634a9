package taxonomy

// Default は組み込みのデフォルトタクソノミーを返します
// 順序は抽出・ギャップ分析の出力順としてそのまま使われます
func Default() *Taxonomy {
	return MustNew([]Skill{
		{Canonical: "Python"},
		{Canonical: "Go", Synonyms: []string{"golang"}},
		{Canonical: "Java"},
		{Canonical: "JavaScript"},
		{Canonical: "TypeScript"},
		{Canonical: "C++", Synonyms: []string{"cpp"}},
		{Canonical: "C#", Synonyms: []string{"csharp"}},
		{Canonical: "Ruby"},
		{Canonical: "PHP"},
		{Canonical: "Rust"},
		{Canonical: "SQL"},
		{Canonical: "PostgreSQL", Synonyms: []string{"postgres"}},
		{Canonical: "MySQL"},
		{Canonical: "MongoDB"},
		{Canonical: "Redis"},
		{Canonical: "Elasticsearch"},
		{Canonical: "Kafka"},
		{Canonical: "RabbitMQ"},
		{Canonical: "AWS", Synonyms: []string{"amazon web services"}},
		{Canonical: "Azure"},
		{Canonical: "GCP", Synonyms: []string{"google cloud"}},
		{Canonical: "Docker"},
		{Canonical: "Kubernetes", Synonyms: []string{"k8s"}},
		{Canonical: "Terraform"},
		{Canonical: "Ansible"},
		{Canonical: "Linux"},
		{Canonical: "Git"},
		{Canonical: "CI/CD", Synonyms: []string{"continuous integration", "continuous delivery"}},
		{Canonical: "React", Synonyms: []string{"react.js", "reactjs"}},
		{Canonical: "Vue", Synonyms: []string{"vue.js", "vuejs"}},
		{Canonical: "Angular"},
		{Canonical: "Node.js", Synonyms: []string{"nodejs", "node"}},
		{Canonical: "Django"},
		{Canonical: "Flask"},
		{Canonical: "FastAPI"},
		{Canonical: "Spring", Synonyms: []string{"spring boot"}},
		{Canonical: "REST API", Synonyms: []string{"rest", "restful"}},
		{Canonical: "GraphQL"},
		{Canonical: "gRPC"},
		{Canonical: "Machine Learning", Synonyms: []string{"ml"}},
		{Canonical: "Deep Learning"},
		{Canonical: "NLP", Synonyms: []string{"natural language processing"}},
		{Canonical: "TensorFlow"},
		{Canonical: "PyTorch"},
		{Canonical: "Pandas"},
		{Canonical: "NumPy"},
		{Canonical: "Scrum"},
		{Canonical: "Agile"},
		{Canonical: "Microservices"},
		{Canonical: "DevOps"},
	})
}
